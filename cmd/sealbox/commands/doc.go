// Package commands defines the sealbox CLI and wires dependencies for
// subcommands.
//
// Commands
//
//   - init          Create the local device identity
//   - fingerprint   Print the identity fingerprint
//   - bundle        Export a prekey bundle (consumes a one-time prekey)
//   - rotate        Rotate the signed prekey
//   - replenish     Top up the one-time prekey pool
//   - seal          Encrypt a file to a peer's identity key
//   - open          Decrypt a file sealed to this device
//   - encrypt-file  Encrypt a file into keyed chunks
//   - decrypt-file  Decrypt and reassemble an encrypted file
//
// The root command loads config.yaml from the home directory and builds
// the store/session dependency graph before any subcommand runs.
package commands
