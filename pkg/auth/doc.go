// Package auth keeps the token used to publish the output file.
//
// A token set in HOCKEYSCRAPER_GITHUB_TOKEN or GITHUB_TOKEN wins. Otherwise
// credentials are looked up in the system keyring and then in an encrypted
// file in the user config directory.
package auth
