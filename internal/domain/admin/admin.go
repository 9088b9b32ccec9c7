// Package admin holds the admin-panel resources served through cached hooks.
package admin

import "time"

// Credential is a stored connector credential. Secrets are never included.
type Credential struct {
	ID          int64          `json:"id"`
	Credential  map[string]any `json:"credential_json,omitempty"`
	UserID      *string        `json:"user_id,omitempty"`
	AdminPublic bool           `json:"admin_public"`
	TimeCreated time.Time      `json:"time_created"`
	TimeUpdated time.Time      `json:"time_updated"`
}

// DocumentBoostStatus reports how user feedback has boosted a document.
type DocumentBoostStatus struct {
	DocumentID string `json:"document_id"`
	SemanticID string `json:"semantic_id"`
	Link       string `json:"link"`
	Boost      int    `json:"boost"`
	Hidden     bool   `json:"hidden"`
}

// Connector is the minimal connector description shown in admin views.
type Connector struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Source string `json:"source"`
}

// IndexingStatus values reported by the backend.
const (
	StatusNotStarted = "not_started"
	StatusInProgress = "in_progress"
	StatusSuccess    = "success"
	StatusFailed     = "failed"
)

// ConnectorIndexingStatus is the indexing state of one connector/credential pair.
type ConnectorIndexingStatus struct {
	CCPairID    int64      `json:"cc_pair_id"`
	Name        string     `json:"name"`
	Connector   Connector  `json:"connector"`
	Public      bool       `json:"public"`
	OwnerEmail  string     `json:"owner,omitempty"`
	LastStatus  string     `json:"last_status,omitempty"`
	LastSuccess *time.Time `json:"last_success,omitempty"`
	DocsIndexed int        `json:"docs_indexed"`
	ErrorMsg    string     `json:"error_msg,omitempty"`
	IsDeletable bool       `json:"is_deletable"`
}

// User roles.
const (
	RoleBasic = "basic"
	RoleAdmin = "admin"
)

// User is an account known to the backend.
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	IsActive    bool   `json:"is_active"`
	IsSuperuser bool   `json:"is_superuser"`
	IsVerified  bool   `json:"is_verified"`
	Role        string `json:"role"`
}

// CCPairDescriptor names a connector/credential pair inside a group.
type CCPairDescriptor struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Connector Connector `json:"connector"`
}

// UserGroup is an enterprise-only grouping of users and connectors.
type UserGroup struct {
	ID              int64              `json:"id"`
	Name            string             `json:"name"`
	Users           []User             `json:"users"`
	CCPairs         []CCPairDescriptor `json:"cc_pairs"`
	IsUpToDate      bool               `json:"is_up_to_date"`
	IsUpForDeletion bool               `json:"is_up_for_deletion"`
}
