package convert

import (
	"fmt"

	"github.com/zsiec/cadence/internal/errors"
	"github.com/zsiec/cadence/internal/video"
)

func errInvalidFormat(format video.PixelFormat) error {
	return errors.NewValidationError(fmt.Sprintf("unsupported pixel format %q", format))
}

func errInvalidGeometry(width, height int) error {
	return errors.NewGeometryError(fmt.Sprintf("invalid frame geometry %dx%d", width, height))
}

func errInvalidRate(rate video.Rational) error {
	return errors.NewValidationError(fmt.Sprintf("invalid target rate %s", rate))
}

func errInvalidTimeBase(tb video.Rational) error {
	return errors.NewValidationError(fmt.Sprintf("invalid source time base %s", tb))
}
