package gdpr

// PurposeGroup is a named set of IAB TCF purpose ids checked together.
// The groupings are fixed by the TCF specification, not configurable.
type PurposeGroup []uint8

var (
	// PurposesDeviceAccess covers purpose 1: store and/or access information
	// on a device.
	PurposesDeviceAccess = PurposeGroup{1}

	// PurposesAdvertising covers personalized advertising:
	// purpose 2 (select basic ads), purpose 3 (create a personalised ads
	// profile) and purpose 4 (select personalised ads).
	PurposesAdvertising = PurposeGroup{2, 3, 4}

	// PurposesAnalytics covers measurement:
	// purpose 7 (measure ad performance), purpose 8 (measure content
	// performance) and purpose 9 (apply market research to generate
	// audience insights).
	PurposesAnalytics = PurposeGroup{7, 8, 9}

	// PurposesBasicAds covers purpose 2 only: non-personalized advertising.
	PurposesBasicAds = PurposeGroup{2}
)
