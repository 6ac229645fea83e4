package config

// DB holds the database configuration settings.
type DB struct {
	GormEngine string `validate:"oneof=mysql postgres sqlite"`
	Host       string
	Port       int
	User       string
	Password   string
	Name       string
	Extras     string
	// Path is the database file of the sqlite engine.
	Path string
}
