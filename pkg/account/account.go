// Package account resolves display names to accounts and manages the
// lifecycle of the active one.
package account

import (
	"tableflip.dev/questlog/pkg/docstore"
	"tableflip.dev/questlog/pkg/timeutil"
)

// DefaultAvatar is used when a new account is registered without one.
const DefaultAvatar = "Rathalos_Icon.webp"

// Profile is the account record. AvatarID is the only field that changes
// after registration.
type Profile struct {
	DisplayName string             `json:"displayName" yaml:"displayName"`
	AvatarID    string             `json:"avatarId" yaml:"avatarId"`
	CreatedAt   timeutil.Timestamp `json:"createdAt" yaml:"createdAt"`
}

// Avatar returns the avatar, or DefaultAvatar when none is stored.
func (p Profile) Avatar() string {
	if p.AvatarID == "" {
		return DefaultAvatar
	}
	return p.AvatarID
}

// Root is the subtree holding everything that belongs to key.
func Root(key string) string {
	return docstore.Join("accounts", docstore.Segment(key))
}

// ProfilePath locates the profile of key.
func ProfilePath(key string) string {
	return docstore.Join(Root(key), "profile")
}

// FromDocument decodes a stored profile.
func FromDocument(doc docstore.Document) (*Profile, error) {
	p := &Profile{}
	if err := doc.Decode(p); err != nil {
		return nil, err
	}
	return p, nil
}
