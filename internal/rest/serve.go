// Copyright (C) 2026 the starfuse authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package rest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"starfuse/internal/fuse"
	"starfuse/internal/raster"
)

func Serve() {
	r := gin.Default()
	api := r.Group("/api")
	{
		v1 := api.Group("/v1")
		{
			v1.GET("/ping", getPing)
			v1.POST("/fuse", postFuse)
		}
	}
	r.Run() // listen and serve on 0.0.0.0:8080
}

func getPing(c *gin.Context) {
	c.JSON(200, gin.H{
		"message": "pong",
	})
}

func printArgs(logWriter io.Writer, prefix, suffix string, args interface{}) error {
	m, err := json.MarshalIndent(args, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintf(logWriter, "%s%s%s", prefix, string(m), suffix)
	return nil
}

// One raster input: a 16-bit grayscale TIFF plus its acquisition day of year
type rasterArg struct {
	FileName string `json:"fileName"`
	DOY      int32  `json:"doy"`
}

type postFuseArgs struct {
	Sparse0      rasterArg   `json:"sparse0"`
	Sparse1      rasterArg   `json:"sparse1"`
	Dense0       rasterArg   `json:"dense0"`
	Dense1       rasterArg   `json:"dense1"`
	Targets      []rasterArg `json:"targets"`
	Radius       int         `json:"radius"`
	CoverClasses int         `json:"coverClasses"`
	Band         string      `json:"band"`
	Min          float32     `json:"min"`
	Max          float32     `json:"max"`
	Despeckle    bool        `json:"despeckle"`
	Out          string      `json:"out"` // output pattern, %d expands to the target DOY
}

func postFuse(c *gin.Context) {
	logWriter := c.Writer
	args := postFuseArgs{Radius: 10, CoverClasses: 7, Band: "ndvi", Min: -1, Max: 1, Out: "pred_%03d.tif"}
	if err := c.ShouldBind(&args); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	header := logWriter.Header()
	header.Set("Content-Type", "text/plain")
	logWriter.WriteHeader(http.StatusOK)

	if err := printArgs(logWriter, "Arguments:\n", "\n", args); err != nil {
		fmt.Fprintf(logWriter, "Error printing arguments: %s\n", err.Error())
		return
	}

	load := func(a rasterArg) (*raster.Raster, error) {
		if !isPathAllowed(a.FileName) {
			return nil, fmt.Errorf("%s: filename outside current directory tree", a.FileName)
		}
		r, err := raster.ReadMonoTIFF16File(a.FileName, args.Band, args.Min, args.Max)
		if err != nil {
			return nil, err
		}
		r.DOY = a.DOY
		if args.Despeckle {
			r = r.Despeckle()
		}
		return r, nil
	}

	var err error
	var sparse0, sparse1, dense0, dense1 *raster.Raster
	if sparse0, err = load(args.Sparse0); err == nil {
		if sparse1, err = load(args.Sparse1); err == nil {
			if dense0, err = load(args.Dense0); err == nil {
				dense1, err = load(args.Dense1)
			}
		}
	}
	if err != nil {
		fmt.Fprintf(logWriter, "Error loading bracket rasters: %s\n", err.Error())
		return
	}
	targets := make([]*raster.Raster, len(args.Targets))
	for i, a := range args.Targets {
		if targets[i], err = load(a); err != nil {
			fmt.Fprintf(logWriter, "Error loading target rasters: %s\n", err.Error())
			return
		}
		targets[i].ID = i
	}

	pair, err := fuse.NewPair(sparse0, sparse1, dense0, dense1)
	if err != nil {
		fmt.Fprintf(logWriter, "error: %s\n", err.Error())
		return
	}
	cfg := fuse.NewConfig(args.Radius, []string{args.Band}, args.CoverClasses)
	ctx := fuse.NewContext(logWriter)

	outs, err := fuse.Fuse(pair, targets, cfg, ctx)
	if err != nil {
		fmt.Fprintf(logWriter, "error: %s\n", err.Error())
		return
	}
	for _, out := range outs {
		fileName := args.Out
		if strings.Contains(fileName, "%") {
			fileName = fmt.Sprintf(args.Out, out.DOY)
		}
		if !isPathAllowed(fileName) {
			fmt.Fprintf(logWriter, "Output path outside current directory tree, skipping %s\n", fileName)
			continue
		}
		fmt.Fprintf(logWriter, "%d: Writing %s prediction for DOY %d to %s\n",
			out.ID, out.DimensionsToString(), out.DOY, fileName)
		if err := out.WriteMonoTIFF16ToFile(fileName, 0, args.Min, args.Max); err != nil {
			fmt.Fprintf(logWriter, "error: %s\n", err.Error())
			return
		}
	}
	logWriter.(http.Flusher).Flush()
}

// Returns true if a path is considered safe, i.e. not an absolute path,
// and doesn't contain the ".." characters to change to a parent directory
func isPathAllowed(p string) bool {
	if filepath.IsAbs(p) {
		return false
	}
	if strings.Contains(p, "..") {
		return false
	}
	return true
}
