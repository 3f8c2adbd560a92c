// Package auth provides authentication and authorisation for SMARWI Hub.
//
// It implements a 2-tier role model (user → admin) with:
//   - Argon2id password hashing (OWASP 2025 recommendation)
//   - Short-lived JWT access tokens validated by signature only
//   - Users declared in the hub configuration file, no user database
//
// Users can read devices and operate covers. Admins can additionally
// change calibration settings, toggle ridge enforcement, and delete
// devices from the registry.
package auth
