/*
Copyright © 2024 the Hydro authors.
This file is part of Hydro.

Hydro is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Hydro is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with Hydro.  If not, see <http://www.gnu.org/licenses/>.
*/


// Command hydro converts hydrographic CTD and bottle data between formats.
package main

import (
	"fmt"
	"os"

	"github.com/hydroarchive/hydro/hydroutil"
)

func main() {
	if err := hydroutil.Root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
