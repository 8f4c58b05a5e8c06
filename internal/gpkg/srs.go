package gpkg

import "fmt"

type srsDef struct {
	name       string
	definition string
}

// knownSRS holds WKT for the reference systems found in Italian cadastral
// data. Other EPSG codes are registered with an "undefined" definition and
// resolved by readers through organization and code.
var knownSRS = map[int]srsDef{
	4326: {
		name: "WGS 84 geodetic",
		definition: `GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563,AUTHORITY["EPSG","7030"]],` +
			`AUTHORITY["EPSG","6326"]],PRIMEM["Greenwich",0,AUTHORITY["EPSG","8901"]],` +
			`UNIT["degree",0.0174532925199433,AUTHORITY["EPSG","9122"]],AUTHORITY["EPSG","4326"]]`,
	},
	4258: {
		name: "ETRS89",
		definition: `GEOGCS["ETRS89",DATUM["European_Terrestrial_Reference_System_1989",SPHEROID["GRS 1980",6378137,298.257222101,` +
			`AUTHORITY["EPSG","7019"]],TOWGS84[0,0,0,0,0,0,0],AUTHORITY["EPSG","6258"]],PRIMEM["Greenwich",0,AUTHORITY["EPSG","8901"]],` +
			`UNIT["degree",0.0174532925199433,AUTHORITY["EPSG","9122"]],AUTHORITY["EPSG","4258"]]`,
	},
	6706: {
		name: "RDN2008",
		definition: `GEOGCS["RDN2008",DATUM["Rete_Dinamica_Nazionale_2008",SPHEROID["GRS 1980",6378137,298.257222101,` +
			`AUTHORITY["EPSG","7019"]],TOWGS84[0,0,0,0,0,0,0],AUTHORITY["EPSG","1132"]],PRIMEM["Greenwich",0,AUTHORITY["EPSG","8901"]],` +
			`UNIT["degree",0.0174532925199433,AUTHORITY["EPSG","9122"]],AUTHORITY["EPSG","6706"]]`,
	},
}

// srsRow returns the gpkg_spatial_ref_sys values for an EPSG code.
func srsRow(srid int) (name, definition string) {
	if def, ok := knownSRS[srid]; ok {
		return def.name, def.definition
	}
	return fmt.Sprintf("EPSG:%d", srid), "undefined"
}
