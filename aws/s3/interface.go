package s3

import (
	"errors"
)

var ErrKeyNotFound = errors.New("key not found")

// BasicClient is the object storage surface the pipeline stages depend on.
// The production implementation is S3; tests use the in-memory client.
type BasicClient interface {
	Lister
	Getter
	Putter
	Deleter
}

type Lister interface {
	List(key string) (keys []string, err error)
}

type Getter interface {
	// Get returns ErrKeyNotFound if the given key doesn't exist.
	Get(key string) (data []byte, err error)
}

type Putter interface {
	Put(key string, data []byte) (err error)
}

type Deleter interface {
	Delete(key string) error
}
