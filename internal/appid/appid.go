// Package appid holds the application identity used for the binary name,
// config discovery and environment variable prefix.
package appid

// Identity describes the application.
type Identity struct {
	Vendor      string
	BinaryName  string
	ConfigName  string
	EnvPrefix   string
	Description string
}

var identity = Identity{
	Vendor:      "surgeprotector",
	BinaryName:  "surgeprotector",
	ConfigName:  "surgeprotector",
	EnvPrefix:   "SURGEPROTECTOR_",
	Description: "Block Tor exit traffic to flooding IP addresses via ExitPolicy",
}

// Get returns the application identity.
func Get() Identity {
	return identity
}
