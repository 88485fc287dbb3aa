package api

import "github.com/catalogd/catalogd/internal/config"

// OnboardRequest registers a tenant database for cataloging.
type OnboardRequest struct {
	Tenant         string `json:"tenant"`
	Type           string `json:"type"`
	Host           string `json:"host"`
	Port           int    `json:"port"`
	Schema         string `json:"schema"`
	Username       string `json:"username"`
	Password       string `json:"password"`
	SSL            bool   `json:"ssl"`
	MaxConnections int    `json:"maxConnections"`
}

func (r *OnboardRequest) toTenantConfig() config.TenantConfig {
	return config.TenantConfig{
		Type:           r.Type,
		Host:           r.Host,
		Port:           r.Port,
		Schema:         r.Schema,
		Username:       r.Username,
		Password:       r.Password,
		SSL:            r.SSL,
		MaxConnections: r.MaxConnections,
	}
}

// ConnectionTestResponse reports the outcome of a connection probe.
type ConnectionTestResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// AnnotateTableRequest sets a table's user description.
type AnnotateTableRequest struct {
	Description string `json:"description"`
}

// AnnotateColumnRequest sets a column's user note.
type AnnotateColumnRequest struct {
	Note string `json:"note"`
}

// StatusResponse is the generic mutation acknowledgement.
type StatusResponse struct {
	Status string `json:"status"`
}
