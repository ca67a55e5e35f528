package remote

import (
	"context"

	"github.com/pweiskircher/profile-sync/internal/profile"
)

// RemoteProfile is a profile document fetched from an org together
// with the revision the org reported for it.
type RemoteProfile struct {
	Name     string
	Source   string
	Revision string
	Document profile.Document
}

// ProfileInfo is the listing metadata for one remote profile.
type ProfileInfo struct {
	Name         string `json:"name"`
	Revision     string `json:"revision"`
	LastModified string `json:"lastModified"`
}

// Fetcher retrieves profiles from named sources. Source aliases come
// from the org map in the project configuration.
type Fetcher interface {
	FetchProfile(ctx context.Context, source string, name string) (RemoteProfile, error)
	ListProfiles(ctx context.Context, source string) ([]ProfileInfo, error)
}
