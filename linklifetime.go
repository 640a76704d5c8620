package main

// EstimateLinkLifetime implements the link-lifetime estimator (§4.G): the
// lifetime of a link is the shorter of the two sides' predicted dwell
// windows at their respective next locations.
func EstimateLinkLifetime(myNextInterval, peerNextInterval int) float64 {
	mine := TimeIntervalToSeconds(myNextInterval)
	peer := TimeIntervalToSeconds(peerNextInterval)
	if mine < peer {
		return mine
	}
	return peer
}
