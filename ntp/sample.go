/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package ntp

// Sample is a single raw measurement produced from one packet exchange:
// the offset/delay/dispersion triple and the local time it was taken at.
// Samples are value types; the only change the shift register makes to a
// stored entry is adding aging to its Dispersion field.
type Sample struct {
	Offset     Duration
	Delay      Duration
	Dispersion Duration
	Time       Timestamp
}

// dummySample is the sentinel entry a fresh shift register is filled
// with. Its dispersion (and delay) sit at MaxDispersion so it sorts to
// the tail of a SortedView and contributes the maximum possible
// dispersion penalty until real samples arrive. Dummies are left out of
// the valid prefix, so they do not enter the jitter.
var dummySample = Sample{
	Offset:     Zero,
	Delay:      MaxDispersion,
	Dispersion: MaxDispersion,
	Time:       0,
}

// isDummy reports whether s is the sentinel dummy sample. Aging must
// never be applied to a dummy: the reference implementation guarantees
// this by skipping dispersion addition on sentinel entries, since adding
// to MaxDispersion would stop it from comparing equal to the sentinel.
func (s Sample) isDummy() bool {
	return s == dummySample
}
