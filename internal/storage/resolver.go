package storage

import (
	"fmt"

	"wopiproxy/internal/model"
	"wopiproxy/internal/ports"
)

// Resolver dispatches a model.Storage row to the StorageNode implementation
// for its protocol. It is the only place that knows about concrete backends;
// the WOPI handler and session manager only ever see ports.StorageNode.
type Resolver struct {
	local *LocalBackend
	s3    *S3Backend
}

func NewResolver() *Resolver {
	return &Resolver{local: NewLocalBackend(), s3: NewS3Backend()}
}

func (r *Resolver) NodeFor(storage *model.Storage) (ports.StorageNode, error) {
	switch storage.Protocol {
	case model.ProtocolLocal:
		return r.local, nil
	case model.ProtocolS3:
		return r.s3, nil
	default:
		return nil, fmt.Errorf("%w: unrecognized protocol %q", model.ErrUnsupportedCapability, storage.Protocol)
	}
}
