// Package main provides the entry point of crm-authz, the authorization service of a
// multi-tenant CRM. It serves a JSON API over fiber that authorizes every request against
// super-user, tenant owner and role based permissions, lets tenants manage their roles
// and permission assignments, and generates the permission catalog from the route
// registry. The application uses gorm for persistence on MySQL, PostgreSQL or SQLite.
package main
