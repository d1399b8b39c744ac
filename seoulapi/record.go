package seoulapi

// A RawRecord is one fetched data row: a mapping from a dataset-specific field
// name to its string value. The portal publishes no schema, so the same
// logical quantity can appear under different field names across datasets.
// Records are consumed by field discovery and aggregation and then discarded.
type RawRecord map[string]string

// A Page holds the result of fetching one page of rows from a dataset
// endpoint, normalized across the portal's two response dialects.
type Page struct {
	// the root element name (markup) or top-level key (JSON) of the response,
	// which identifies the service that produced it
	ServiceKey string
	// the rows contained in this page
	Records []RawRecord
	// the declared total number of rows in the dataset
	TotalCount int
	// the dataset's as-of date, when the payload declares one
	AsOfDate string
	// the upstream result code (see ResultOk, ResultNoData)
	ResultCode string
	// the upstream result message accompanying a non-success code
	resultMessage string
}

// reports whether the portal answered with its distinguished "no data
// provided" code, which is an empty result rather than an error
func (p Page) NoData() bool {
	return p.ResultCode == ResultNoData
}
