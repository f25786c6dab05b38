// Package trusts is the system-scoped provisioning API: creating trusts,
// seeding their bootstrap administrator, and moving them between lifecycle
// states. Status transitions push invalidations into the registry cache
// and the pool cache so a suspension takes effect immediately instead of
// at the next recheck window.
//
// Creating the trust's physical database and running its schema belongs to
// operational tooling, not this module; provisioning here only writes the
// registry row the router needs.
package trusts
