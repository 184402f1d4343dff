package intrinsics

import (
	"github.com/lex00/cloudformation-schema-go/intrinsics"
)

// AWS_REGION is the region pseudo parameter used by generated outputs and
// resolver payloads.
var AWS_REGION = intrinsics.AWS_REGION
