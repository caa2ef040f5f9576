// Package platform models the operating system a package is built for.
//
// Platform is a closed set (Mac, Windows, Linux). Every helper switches over
// all three values, so adding a platform surfaces each decision point that
// needs a new branch.
package platform
