package stores

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/Henry5410858/design-sub000/core"
	"github.com/Henry5410858/design-sub000/stores/aws"
	"github.com/Henry5410858/design-sub000/stores/filesystem"
	"github.com/Henry5410858/design-sub000/stores/memory"
	"github.com/Henry5410858/design-sub000/stores/sqlite"
)

// Store is a union interface over the record and blob boundaries. Every
// backend implements both so a deployment needs a single STORAGE_TYPE.
type Store interface {
	core.RecordStore
	core.BlobStore
}

func GetStore() Store {
	storageType := os.Getenv("STORAGE_TYPE")
	var store Store

	storageField := logrus.Fields{
		"storageType": storageType,
	}

	switch storageType {
	case "filesystem":
		basePath := os.Getenv("LOCAL_STORAGE_PATH")
		if basePath == "" {
			basePath = "./data"
		}
		storageField["basePath"] = basePath
		store = filesystem.NewStore(basePath)
	case "sqlite":
		dataSourceName := os.Getenv("DATA_SOURCE_NAME")
		if dataSourceName == "" {
			dataSourceName = "designs.db"
		}
		storageField["dataSourceName"] = dataSourceName
		store = sqlite.NewStore(dataSourceName)
	case "s3":
		bucketName := os.Getenv("S3_BUCKET_NAME")
		if bucketName == "" {
			logrus.Fatal("S3_BUCKET_NAME environment variable must be set for s3 storage type")
		}
		storageField["bucketName"] = bucketName
		store = aws.NewStore(bucketName)
	default:
		store = memory.NewStore()
		storageField["storageType"] = "in-memory"
	}
	logrus.WithFields(storageField).Info("Use storage")
	return store
}
