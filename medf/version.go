package medf

import (
	"github.com/Masterminds/semver/v3"

	"github.com/teranos/medf/errors"
)

// CurrentVersion is the medf_version written into new documents.
const CurrentVersion = "0.2.1"

// SupportedVersions is the range of medf_version values this build hashes.
const SupportedVersions = ">= 0.1, < 1.0"

// CheckVersion reports whether a medf_version tag falls in SupportedVersions.
// Short tags such as "0.2" are accepted.
func CheckVersion(tag string) error {
	v, err := semver.NewVersion(tag)
	if err != nil {
		return errors.Wrapf(errors.ErrUnsupportedVersion, "medf_version %q is not a version: %v", tag, err)
	}

	constraint, err := semver.NewConstraint(SupportedVersions)
	if err != nil {
		return errors.AssertionFailedf("invalid version constraint %s: %v", SupportedVersions, err)
	}

	if !constraint.Check(v) {
		return errors.WithHintf(
			errors.Wrapf(errors.ErrUnsupportedVersion, "medf_version %s", tag),
			"supported versions: %s", SupportedVersions)
	}
	return nil
}
