package cookie

import "errors"

var ErrInvalidSiteURL = errors.New("site url must be absolute")
