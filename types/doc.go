// Package types provides core types shared across the picoclaw agent core.
// This package has ZERO dependencies on other picoclaw packages to avoid
// circular imports. All other packages should import types from here.
package types
