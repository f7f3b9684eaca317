package model

import "time"

// Protocol identifies which StorageNode implementation backs a Storage row.
type Protocol string

const (
	ProtocolLocal  Protocol = "local"
	ProtocolS3     Protocol = "s3"
	ProtocolWebDAV Protocol = "webdav"
)

// Capabilities describes which optional operations a storage backend supports
// (spec.md §4.1). StorageNode implementations that lack a capability return
// ErrUnsupportedCapability when the protocol layer calls it anyway.
type Capabilities struct {
	Read           bool `json:"read"`
	Write          bool `json:"write"`
	Delete         bool `json:"delete"`
	Versioning     bool `json:"versioning"`
	VersionListing bool `json:"version_listing"`
	VersionAccess  bool `json:"version_access"`
	PresignedURLs  bool `json:"presigned_urls"`
}

// Storage is a tenant-scoped backend endpoint that StorageNode operations run against.
type Storage struct {
	ID         string    `db:"id" json:"id"`
	TenantID   string    `db:"tenant_id" json:"tenant_id"`
	Name       string    `db:"name" json:"name"`
	Protocol   Protocol  `db:"protocol" json:"protocol"`
	RootPath   string    `db:"root_path" json:"root_path"`
	Endpoint   string    `db:"endpoint" json:"endpoint,omitempty"`
	Bucket     string    `db:"bucket" json:"bucket,omitempty"`
	Region     string    `db:"region" json:"region,omitempty"`
	AccessKey  string    `db:"access_key" json:"-"`
	SecretKey  string    `db:"secret_key" json:"-"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}
