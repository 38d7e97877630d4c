// Package file provides file-based adapters: the TOML/YAML configuration
// file and the user-editable prompt store.
package file
