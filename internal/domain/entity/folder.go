package entity

import "github.com/google/uuid"

// Folder maps one on-disk directory into the store. Folders form a forest per
// owner: root folders have a nil parent, and (owner, parent, name) uniquely
// identifies a folder.
type Folder struct {
	ID       int64
	UUID     uuid.UUID
	OwnerID  int64
	ParentID *int64
	Name     string
}

// IsRoot reports whether the folder sits directly under the user's gallery root.
func (f *Folder) IsRoot() bool {
	return f.ParentID == nil
}
