// Package engines defines the template engine contract and the registry used
// to select one by name.
//
// An engine turns template text plus a data context into compiled output and
// declares the file extension that marks its template files. Three engines are
// built in:
//
//	handlebars  (.handlebars)  Handlebars templates rendered by raymond
//	jst         (.jst)         underscore-style <%= path %> / <%- path %> tags
//	gotemplate  (.tmpl)        text/template with the sprig function library
//
// Select instantiates an engine, optionally overriding its extension:
//
//	reg := engines.Default()
//	engine, err := reg.Select("jst", engines.Options{Extension: "ejs"})
package engines
