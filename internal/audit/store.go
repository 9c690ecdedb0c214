// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package audit

import (
	"context"

	"github.com/taibuivan/storehub/pkg/pagination"
)

// Store persists audit entries.
type Store interface {
	// Create inserts one entry.
	Create(context context.Context, entry *Entry) error

	// Ready reports whether the backing storage accepts writes.
	Ready() bool
}

// Filter narrows an audit listing. Empty fields are ignored.
type Filter struct {
	TenantID string
	UserID   string
	Action   string
	Resource string
	Status   Status
}

// Lister reads entries back for the admin listing.
type Lister interface {
	List(context context.Context, filter Filter, page pagination.Params) ([]Entry, int, error)
}
