// Package attestation issues identity attestations for the on-chain UniqueIdentity registry.
//
// For every request the issuer:
// 1. Validates and checksums the subject address
// 2. Reads the subject's current nonce from the registry
// 3. Sets the expiry to now + the validity window
// 4. Packs (subject, identity type, expiry, nonce) exactly like abi.encodePacked and hashes it with keccak256
// 5. Signs the digest under the EIP-191 personal-message prefix
// 6. Recovers the signer from the fresh signature and refuses to release it on mismatch
//
// Key components:
// - Message: the packed canonical tuple and its digest
// - Signer: immutable secp256k1 signing identity, safe for concurrent use
// - Issuer: sequences the steps above; holds no per-request state
package attestation
