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


package hydroutil

import (
	"github.com/hydroarchive/hydro"
	"github.com/hydroarchive/hydro/formats"
	"github.com/hydroarchive/hydro/formats/exchange"
	"github.com/hydroarchive/hydro/formats/netcdf"
	"github.com/hydroarchive/hydro/formats/oceansites"
	"github.com/hydroarchive/hydro/formats/woce"
	"github.com/hydroarchive/hydro/formats/zipfile"
)

func exchangeBottle(o formats.Options) formats.FileReader { return exchange.NewBottle(o) }
func exchangeCTD(o formats.Options) formats.FileReader    { return exchange.NewCTD(o) }
func woceBottle(o formats.Options) formats.FileReader     { return woce.NewBottle(o) }
func woceCTD(o formats.Options) formats.FileReader        { return woce.NewCTD(o) }
func netCDFBottle(o formats.Options) formats.FileReader   { return netcdf.NewBottle(o) }
func netCDFCTD(o formats.Options) formats.FileReader      { return netcdf.NewCTD(o) }

// writer adapts a reader constructor whose codecs also write.
func writer(fn func(formats.Options) formats.FileReader) func(formats.Options) formats.FileWriter {
	return func(o formats.Options) formats.FileWriter { return fn(o).(formats.FileWriter) }
}

// archive returns constructors for a zip archive of the single-file codec
// made by fn. Members are named by name and read when they end in one of
// exts.
func archive(fn func(formats.Options) formats.FileReader, read bool, name func(formats.Options) func(*hydro.File) string,
	exts ...string) (func(formats.Options) formats.CollectionReader, func(formats.Options) formats.CollectionWriter) {
	codec := func(o formats.Options) *zipfile.Codec {
		r := fn(o)
		c := zipfile.New(o, nil, r.(formats.FileWriter))
		if read {
			c.Reader = r
		}
		c.Name = name(o)
		c.Extensions = exts
		return c
	}
	var cr func(formats.Options) formats.CollectionReader
	if read {
		cr = func(o formats.Options) formats.CollectionReader { return codec(o) }
	}
	return cr, func(o formats.Options) formats.CollectionWriter { return codec(o) }
}

func fixed(fn func(*hydro.File) string) func(formats.Options) func(*hydro.File) string {
	return func(formats.Options) func(*hydro.File) string { return fn }
}

func oceanSITESCTD(o formats.Options) formats.FileReader    { return oceansites.NewCTD(o) }
func oceanSITESBottle(o formats.Options) formats.FileReader { return oceansites.NewBottle(o) }

// Table returns every supported format. o configures the OceanSITES file
// names, which depend on the site preset.
func Table(o formats.Options) *formats.Table {
	exCTDR, exCTDW := archive(exchangeCTD, true, fixed(exchange.FileName), ".csv")
	woCTDR, woCTDW := archive(woceCTD, true, fixed(woce.FileName))
	ncCTDR, ncCTDW := archive(netCDFCTD, true, func(o formats.Options) func(*hydro.File) string {
		return netcdf.NewCTD(o).FileName
	}, ".nc")
	ncBtlR, ncBtlW := archive(netCDFBottle, true, func(o formats.Options) func(*hydro.File) string {
		return netcdf.NewBottle(o).FileName
	}, ".nc")
	_, osCTDW := archive(oceanSITESCTD, false, func(o formats.Options) func(*hydro.File) string {
		return oceansites.NewCTD(o).FileName
	})

	return formats.NewTable(
		&formats.Format{
			Name:          "btl.ex",
			Description:   "Bottle Exchange",
			Extensions:    []string{"_hy1.csv", ".hy1.csv"},
			NewFileReader: exchangeBottle,
			NewFileWriter: writer(exchangeBottle),
		},
		&formats.Format{
			Name:          "ctd.ex",
			Description:   "CTD Exchange",
			Extensions:    []string{"_ct1.csv", ".ct1.csv"},
			Namer:         exchange.FileName,
			NewFileReader: exchangeCTD,
			NewFileWriter: writer(exchangeCTD),
		},
		&formats.Format{
			Name:                "ctd.zip.ex",
			Description:         "Zip archive of CTD Exchange files",
			Extensions:          []string{"_ct1.zip"},
			NewCollectionReader: exCTDR,
			NewCollectionWriter: exCTDW,
		},
		&formats.Format{
			Name:          "btl.woce",
			Description:   "WOCE bottle",
			Extensions:    []string{".sea", "_hy.txt"},
			NewFileReader: woceBottle,
			NewFileWriter: writer(woceBottle),
		},
		&formats.Format{
			Name:          "ctd.woce",
			Description:   "WOCE CTD",
			Extensions:    []string{".wct", ".ctd"},
			Namer:         woce.FileName,
			NewFileReader: woceCTD,
			NewFileWriter: writer(woceCTD),
		},
		&formats.Format{
			Name:                "ctd.zip.woce",
			Description:         "Zip archive of WOCE CTD files",
			Extensions:          []string{"_ct.zip"},
			NewCollectionReader: woCTDR,
			NewCollectionWriter: woCTDW,
		},
		&formats.Format{
			Name:          "ctd.nc",
			Description:   "NetCDF CTD",
			Extensions:    []string{"_ctd.nc"},
			Namer:         netcdf.NewCTD(o).FileName,
			NewFileReader: netCDFCTD,
			NewFileWriter: writer(netCDFCTD),
		},
		&formats.Format{
			Name:          "btl.nc",
			Description:   "NetCDF bottle",
			Extensions:    []string{"_hy1.nc"},
			Namer:         netcdf.NewBottle(o).FileName,
			NewFileReader: netCDFBottle,
			NewFileWriter: writer(netCDFBottle),
		},
		&formats.Format{
			Name:                "ctd.zip.nc",
			Description:         "Zip archive of NetCDF CTD files",
			Extensions:          []string{"_nc_ctd.zip"},
			NewCollectionReader: ncCTDR,
			NewCollectionWriter: ncCTDW,
		},
		&formats.Format{
			Name:                "btl.zip.nc",
			Description:         "Zip archive of NetCDF bottle files",
			Extensions:          []string{"_nc_hyd.zip"},
			NewCollectionReader: ncBtlR,
			NewCollectionWriter: ncBtlW,
		},
		&formats.Format{
			Name:          "ctd.os",
			Description:   "OceanSITES CTD",
			Extensions:    []string{"_os_ctd.nc"},
			Namer:         oceansites.NewCTD(o).FileName,
			NewFileWriter: writer(oceanSITESCTD),
		},
		&formats.Format{
			Name:          "btl.os",
			Description:   "OceanSITES bottle",
			Extensions:    []string{"_os_hy1.nc"},
			Namer:         oceansites.NewBottle(o).FileName,
			NewFileWriter: writer(oceanSITESBottle),
		},
		&formats.Format{
			Name:                "ctd.zip.os",
			Description:         "Zip archive of OceanSITES CTD files",
			Extensions:          []string{"_os_ctd.zip"},
			NewCollectionWriter: osCTDW,
		},
	)
}

// directions describes which ways f can be used: r for reading and w for
// writing.
func directions(f *formats.Format) string {
	var s string
	if f.NewFileReader != nil || f.NewCollectionReader != nil {
		s += "r"
	}
	if f.NewFileWriter != nil || f.NewCollectionWriter != nil {
		s += "w"
	}
	return s
}
