// compileinfoprint is imported by the vdjaggr binaries for the side effect of
// printing their build information to os.Stderr at startup.
package compileinfoprint

import (
	"os"

	"github.com/carbocation/vdjaggr/compileinfo"
)

func init() {
	compileinfo.Fprint(os.Stderr)
}
