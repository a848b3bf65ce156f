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

package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/pprof"
	"strconv"
	"strings"
	"time"

	"github.com/pbnjay/memory"

	"starfuse/internal/fuse"
	"starfuse/internal/raster"
	"starfuse/internal/rest"
)

const version = "0.1.2"

var totalMiBs = memory.TotalMemory() / 1024 / 1024

var cpuprofile = flag.String("cpuprofile", "", "write cpu profile to `file`")

var out = flag.String("out", "pred_%03d.tif", "save predictions to `pattern`, %d expands to the target day of year")
var jpg = flag.String("jpg", "", "additionally save 8-bit color-ramp previews to `pattern`, %d expands to the day of year")
var logf = flag.String("log", "", "tee log output to `file`")

var radius = flag.Int("radius", 10, "fusion window radius in pixels; the window spans (2r+1)^2 offsets")
var classes = flag.Int("classes", 7, "number of land cover classes in the scene, controls similarity thresholds")
var band = flag.String("band", "ndvi", "band name carried by the input rasters")
var vmin = flag.Float64("min", -1, "lower bound of the band value range for TIFF16 scaling")
var vmax = flag.Float64("max", 1, "upper bound of the band value range for TIFF16 scaling")

var doys = flag.String("doys", "", "comma-separated days of year: t0, t1, then one per prediction target, e.g. 97,193,113,129")

var despeckle = flag.Bool("despeckle", false, "apply a 3x3 median despeckle to all inputs before fusion")

var fuseMemory = flag.Int("memory", int((totalMiBs*7)/10), "total MiB of memory to use for fusion, default=0.7x physical memory")

func main() {
	logWriter := io.Writer(os.Stdout)
	start := time.Now()
	flag.Usage = func() {
		fmt.Fprintf(logWriter, `Starfuse spatiotemporal image fusion %s
This program comes with ABSOLUTELY NO WARRANTY.
This is free software, and you are welcome to redistribute it under certain conditions.
Refer to https://www.gnu.org/licenses/gpl-3.0.en.html for details.

Usage: %s [-flag value] (fuse|serve|version) (sparse0.tif sparse1.tif dense0.tif dense1.tif target0.tif ... targetn.tif)

Commands:
  fuse    Predict high-resolution rasters for the target dates from one bracket pair
  serve   Offer fusion as a web service on port 8080
  version Show version information

Inputs are aligned, co-registered, pre-masked 16-bit grayscale TIFFs on one
pixel grid. The -doys flag dates them: bracket t0, bracket t1, then each
prediction target in chronological order.

Flags:
`, version, os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *logf != "" {
		file, err := os.OpenFile(*logf, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0666)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Unable to open logfile '%s'\n", *logf)
			os.Exit(-1)
		}
		defer file.Close()
		buffered := bufio.NewWriter(file)
		defer buffered.Flush()
		logWriter = io.MultiWriter(os.Stdout, buffered)
	}

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			fmt.Fprintf(logWriter, "Could not create CPU profile: %s\n", err.Error())
			os.Exit(-1)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(logWriter, "Could not start CPU profile: %s\n", err.Error())
			os.Exit(-1)
		}
		defer pprof.StopCPUProfile()
	}

	args := flag.Args()
	if len(args) < 1 {
		flag.Usage()
		return
	}

	switch args[0] {
	case "serve":
		rest.Serve()

	case "fuse":
		if err := cmdFuse(args[1:], logWriter); err != nil {
			fmt.Fprintf(logWriter, "error: %s\n", err.Error())
			os.Exit(-1)
		}
		fmt.Fprintf(logWriter, "Done after %v\n", time.Since(start))

	case "version":
		fmt.Fprintf(logWriter, "Version %s\n", version)

	case "help", "?":
		flag.Usage()

	default:
		fmt.Fprintf(logWriter, "Unknown command '%s'\n", args[0])
		flag.Usage()
		os.Exit(-1)
	}
}

func cmdFuse(fileNames []string, logWriter io.Writer) error {
	if len(fileNames) < 5 {
		return fmt.Errorf("fuse needs at least 5 rasters (sparse t0/t1, dense t0/t1, one target), got %d", len(fileNames))
	}
	days, err := parseDOYs(*doys, len(fileNames)-2)
	if err != nil {
		return err
	}

	rasters := make([]*raster.Raster, len(fileNames))
	for i, fileName := range fileNames {
		r, err := raster.ReadMonoTIFF16File(fileName, *band, float32(*vmin), float32(*vmax))
		if err != nil {
			return err
		}
		r.ID = i
		if i < 2 {
			r.DOY = days[i] // sparse t0, t1
		} else {
			r.DOY = days[i-2] // dense t0/t1 repeat the bracket days, then one per target
		}
		if *despeckle {
			r = r.Despeckle()
		}
		fmt.Fprintf(logWriter, "%d: Loaded %s raster for DOY %d from %s\n",
			r.ID, r.DimensionsToString(), r.DOY, fileName)
		rasters[i] = r
	}

	pair, err := fuse.NewPair(rasters[0], rasters[1], rasters[2], rasters[3])
	if err != nil {
		return err
	}
	cfg := fuse.NewConfig(*radius, []string{*band}, *classes)
	ctx := fuse.NewContext(logWriter)
	ctx.FuseMemoryMB = *fuseMemory

	outs, err := fuse.Fuse(pair, rasters[4:], cfg, ctx)
	if err != nil {
		return err
	}

	for _, o := range outs {
		fileName := expandPattern(*out, o.DOY)
		fmt.Fprintf(logWriter, "%d: Writing %s prediction for DOY %d to %s\n",
			o.ID, o.DimensionsToString(), o.DOY, fileName)
		if err := o.WriteMonoTIFF16ToFile(fileName, 0, float32(*vmin), float32(*vmax)); err != nil {
			return err
		}
		if *jpg != "" {
			preview := expandPattern(*jpg, o.DOY)
			if err := o.WriteJPGToFile(preview, 0, float32(*vmin), float32(*vmax), 95); err != nil {
				return err
			}
		}
	}
	return nil
}

// parseDOYs splits the -doys flag into t0, t1 and one day per target, and
// checks the bracket ordering the fusion relies on.
func parseDOYs(s string, want int) ([]int32, error) {
	parts := strings.Split(s, ",")
	if s == "" || len(parts) != want {
		return nil, fmt.Errorf("-doys needs %d comma-separated values (t0, t1, one per target), got %q", want, s)
	}
	days := make([]int32, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid day of year %q: %s", p, err.Error())
		}
		days[i] = int32(v)
	}
	if days[1] <= days[0] {
		return nil, fmt.Errorf("bracket t1 DOY %d must follow t0 DOY %d", days[1], days[0])
	}
	return days, nil
}

func expandPattern(pattern string, doy int32) string {
	if strings.Contains(pattern, "%") {
		return fmt.Sprintf(pattern, doy)
	}
	ext := filepath.Ext(pattern)
	return strings.TrimSuffix(pattern, ext) + fmt.Sprintf("_%03d", doy) + ext
}
