package directory

// Config holds configuration for the destination LDAP directory.
type Config struct {
	// URL is the LDAP server URL (ldap:// or ldaps://).
	URL string `mapstructure:"url" default:"ldap://localhost:389"`
	// BindDN is the DN used for simple bind. Empty means anonymous.
	BindDN string `mapstructure:"bind_dn" default:""`
	// BindPassword is the password of BindDN.
	BindPassword string `mapstructure:"bind_password" default:""`
	// BaseDN is the search base of destination entries.
	BaseDN string `mapstructure:"base_dn" default:"dc=example,dc=com"`
	// Filter selects the destination entries.
	Filter string `mapstructure:"filter" default:"(objectClass=inetOrgPerson)"`
	// Attributes limits the attributes read from the directory. Empty reads all.
	Attributes []string `mapstructure:"attributes" default:""`
	// PageSize is the paged search page size.
	PageSize int `mapstructure:"page_size" default:"500"`
	// StartTLS upgrades ldap:// connections.
	StartTLS bool `mapstructure:"start_tls" default:"false"`
	// InsecureSkipVerify disables certificate verification.
	InsecureSkipVerify bool `mapstructure:"insecure_skip_verify" default:"false"`
	// TimeoutSeconds bounds connection setup and each request.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
}
