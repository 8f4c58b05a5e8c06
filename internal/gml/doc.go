// Package gml decodes GML feature collections into feature tables.
//
// The decoder targets the INSPIRE CadastralParcels and CadastralZoning
// documents published by the Italian cadastre, and accepts the common GML 2
// and GML 3.2 constructs around them:
//
//	<gml:FeatureCollection>
//	  <gml:featureMember>
//	    <CP:CadastralParcel gml:id="IT.AGE.PLA.F229_0012A0.1">
//	      <CP:geometry>
//	        <gml:MultiSurface srsName="urn:ogc:def:crs:EPSG::6706">...</gml:MultiSurface>
//	      </CP:geometry>
//	      <CP:inspireId><base:Identifier><base:localId>...</base:localId></base:Identifier></CP:inspireId>
//	      <CP:label>12</CP:label>
//	    </CP:CadastralParcel>
//	  </gml:featureMember>
//	</gml:FeatureCollection>
//
// Features are decoded one at a time, so memory is bounded by the largest
// feature rather than the document. Simple properties become text columns;
// nested properties are flattened to "<property>_<leaf>" with type wrapper
// elements (those starting with an upper-case letter) left out of the name.
//
// Coordinates of geographic CRSs named in URN or http form are read in
// lat/lon axis order and stored as lon/lat. A feature whose geometry cannot
// be decoded keeps a nil geometry; dropping it is up to the caller.
package gml
