// Package validate implements the pure, pre-run validation pass over
// profiles and points: duplicate channels, unknown channel references,
// per-channel address overlap, and HMI-name uniqueness.
package validate

import (
	"math"
	"sort"

	"github.com/hollysys/plc-comm-forge/comm/model"
)

// Issue is one validation finding. PointKey/HmiName are set when the issue
// concerns a specific point; both are zero-value when it concerns a
// profile.
type Issue struct {
	PointKey *model.PointKey
	HmiName  string
	Field    string
	Reason   string
}

func pointIssue(pt model.Point, field, reason string) Issue {
	key := pt.PointKey
	return Issue{PointKey: &key, HmiName: pt.HmiName, Field: field, Reason: reason}
}

// Profiles checks non-empty, unique channel_name across profiles.
func Profiles(profiles []model.ConnectionProfile) []Issue {
	var issues []Issue
	seen := make(map[string]bool)
	for _, p := range profiles {
		if p.ChannelName == "" {
			issues = append(issues, Issue{Field: "channelName", Reason: "channel name is empty"})
			continue
		}
		if seen[p.ChannelName] {
			issues = append(issues, Issue{Field: "channelName", Reason: "duplicate channel name: " + p.ChannelName})
		}
		seen[p.ChannelName] = true
	}
	return issues
}

// Points checks unique point_key, non-empty+unique hmi_name, known
// channel_name, non-Unknown data_type/byte_order, and finite scale.
func Points(profiles []model.ConnectionProfile, points []model.Point) []Issue {
	var issues []Issue

	channels := make(map[string]bool, len(profiles))
	for _, p := range profiles {
		channels[p.ChannelName] = true
	}

	seenKeys := make(map[model.PointKey]bool)
	seenNames := make(map[string]bool)

	for _, pt := range points {
		if seenKeys[pt.PointKey] {
			issues = append(issues, pointIssue(pt, "pointKey", "duplicate point key"))
		}
		seenKeys[pt.PointKey] = true

		if pt.HmiName == "" {
			issues = append(issues, pointIssue(pt, "hmiName", "hmi name is empty"))
		} else if seenNames[pt.HmiName] {
			issues = append(issues, pointIssue(pt, "hmiName", "duplicate hmi name: "+pt.HmiName))
		}
		if pt.HmiName != "" {
			seenNames[pt.HmiName] = true
		}

		if !channels[pt.ChannelName] {
			issues = append(issues, pointIssue(pt, "channelName", "未知通道名称: "+pt.ChannelName))
		}
		if pt.DataType == model.DataTypeUnknown {
			issues = append(issues, pointIssue(pt, "dataType", "data type is Unknown"))
		}
		if pt.ByteOrder == model.ByteOrderUnknown && needsByteOrder(pt.DataType) {
			issues = append(issues, pointIssue(pt, "byteOrder", "byte order is Unknown"))
		}
		if math.IsNaN(pt.Scale) || math.IsInf(pt.Scale, 0) {
			issues = append(issues, pointIssue(pt, "scale", "scale is not finite"))
		}
	}
	return issues
}

func needsByteOrder(dt model.DataType) bool {
	span, ok := dt.RegisterSpan()
	return ok && span >= 2
}

// GlobalHMIUniqueness checks hmi_name uniqueness across several devices'
// point sets, for callers (outside this core) that hold multiple devices'
// points simultaneously. Both the first occurrence and every duplicate are
// flagged, mirroring the original implementation's behavior.
func GlobalHMIUniqueness(devicePoints map[string][]model.Point) []Issue {
	type occurrence struct {
		device string
		point  model.Point
	}
	byName := make(map[string][]occurrence)

	devices := make([]string, 0, len(devicePoints))
	for d := range devicePoints {
		devices = append(devices, d)
	}
	sort.Strings(devices)

	for _, device := range devices {
		for _, pt := range devicePoints[device] {
			if pt.HmiName == "" {
				continue
			}
			byName[pt.HmiName] = append(byName[pt.HmiName], occurrence{device: device, point: pt})
		}
	}

	var issues []Issue
	for _, occs := range byName {
		if len(occs) < 2 {
			continue
		}
		for _, o := range occs {
			issues = append(issues, pointIssue(o.point, "hmiName", "duplicate hmi name across devices: "+o.point.HmiName+" ("+o.device+")"))
		}
	}
	return issues
}

// AddressSegment is a half-open [Start, Start+Span) range reserved by one
// point on a channel.
type AddressSegment struct {
	PointKey model.PointKey
	Start    int
	Span     int
}

// Overlaps reports whether two segments intersect.
func (s AddressSegment) Overlaps(o AddressSegment) bool {
	return s.Start < o.Start+o.Span && o.Start < s.Start+s.Span
}

// ChannelAddresses validates the per-channel address layout using the same
// explicit/implicit cursor algorithm as the plan builder: every explicit
// offset must be in range, explicit segments must not overlap, and implicit
// points are placed by a cursor that must also stay in range.
func ChannelAddresses(profile model.ConnectionProfile, points []model.Point, spanFor func(model.ReadArea, model.DataType) (int, bool)) []Issue {
	var issues []Issue
	var explicit []AddressSegment
	type implicitPt struct {
		pt   model.Point
		span int
	}
	var implicit []implicitPt

	for _, pt := range points {
		span, ok := spanFor(profile.ReadArea, pt.DataType)
		if !ok {
			continue // reported by Points()
		}
		if pt.AddressOffset != nil {
			addr := profile.StartAddress + *pt.AddressOffset
			if addr < profile.StartAddress || addr+span > profile.StartAddress+profile.Length {
				issues = append(issues, pointIssue(pt, "addressOffset", "explicit offset places span outside channel range"))
				continue
			}
			explicit = append(explicit, AddressSegment{PointKey: pt.PointKey, Start: addr, Span: span})
		} else {
			implicit = append(implicit, implicitPt{pt: pt, span: span})
		}
	}

	for i := 0; i < len(explicit); i++ {
		for j := i + 1; j < len(explicit); j++ {
			if explicit[i].Overlaps(explicit[j]) {
				issues = append(issues, Issue{Field: "addressOffset", Reason: "overlapping explicit address offsets on channel " + profile.ChannelName})
			}
		}
	}

	cursor := profile.StartAddress
	chanEnd := profile.StartAddress + profile.Length
	for _, ip := range implicit {
		placed := false
		for !placed {
			if cursor+ip.span > chanEnd {
				issues = append(issues, pointIssue(ip.pt, "addressOffset", "no room left on channel for implicit placement"))
				break
			}
			collided := false
			for _, e := range explicit {
				seg := AddressSegment{Start: cursor, Span: ip.span}
				if seg.Overlaps(e) {
					cursor = e.Start + e.Span
					collided = true
					break
				}
			}
			if !collided {
				cursor += ip.span
				placed = true
			}
		}
	}

	return issues
}

// Run validates profiles and points end to end, as the run engine does
// before entering its I/O phase.
func Run(profiles []model.ConnectionProfile, points []model.Point, spanFor func(model.ReadArea, model.DataType) (int, bool)) []Issue {
	var issues []Issue
	issues = append(issues, Profiles(profiles)...)
	issues = append(issues, Points(profiles, points)...)

	byChannel := make(map[string][]model.Point)
	for _, pt := range points {
		byChannel[pt.ChannelName] = append(byChannel[pt.ChannelName], pt)
	}
	for _, p := range profiles {
		issues = append(issues, ChannelAddresses(p, byChannel[p.ChannelName], spanFor)...)
	}
	return issues
}
