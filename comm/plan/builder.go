package plan

import (
	"sort"

	"github.com/hollysys/plc-comm-forge/comm/model"
)

// Plan is the ordered list of read jobs produced by Build.
type Plan struct {
	Jobs []model.ReadJob
}

type segment struct {
	point model.Point
	start int
	span  int
}

func spanFor(area model.ReadArea, dt model.DataType) (int, bool) {
	if area.IsBitArea() {
		if dt == model.DataTypeBool {
			return 1, true
		}
		return 0, false
	}
	if dt == model.DataTypeBool {
		return 0, false
	}
	return dt.RegisterSpan()
}

// Build produces an ordered list of ReadJobs from profiles and points. It is
// a pure function: equal inputs always produce byte-equal plans.
func Build(profiles []model.ConnectionProfile, points []model.Point) (*Plan, error) {
	byChannel := make(map[string][]model.Point)
	profileByChannel := make(map[string]model.ConnectionProfile, len(profiles))
	for _, p := range profiles {
		profileByChannel[p.ChannelName] = p
	}

	var errs []PointError
	for _, pt := range points {
		if _, ok := profileByChannel[pt.ChannelName]; !ok {
			errs = append(errs, PointError{
				Kind:        UnknownChannel,
				ChannelName: pt.ChannelName,
				HmiName:     pt.HmiName,
				Reason:      "channel not declared by any profile",
			})
			continue
		}
		byChannel[pt.ChannelName] = append(byChannel[pt.ChannelName], pt)
	}

	plan := &Plan{}
	for _, profile := range profiles {
		pts := byChannel[profile.ChannelName]
		if len(pts) == 0 {
			continue
		}

		var explicit []segment
		var implicit []struct {
			point model.Point
			span  int
		}

		for _, pt := range pts {
			span, ok := spanFor(profile.ReadArea, pt.DataType)
			if !ok {
				errs = append(errs, PointError{
					Kind:        AreaTypeMismatch,
					ChannelName: profile.ChannelName,
					HmiName:     pt.HmiName,
					Reason:      "data type cannot be read from this area",
				})
				continue
			}
			if pt.AddressOffset != nil {
				addr := profile.StartAddress + *pt.AddressOffset
				if addr < profile.StartAddress || addr+span > profile.StartAddress+profile.Length {
					errs = append(errs, PointError{
						Kind:        AddressOutOfRange,
						ChannelName: profile.ChannelName,
						HmiName:     pt.HmiName,
						Reason:      "explicit offset places span outside channel range",
					})
					continue
				}
				explicit = append(explicit, segment{point: pt, start: addr, span: span})
			} else {
				implicit = append(implicit, struct {
					point model.Point
					span  int
				}{pt, span})
			}
		}

		explicit = append([]segment(nil), explicit...)
		sort.SliceStable(explicit, func(i, j int) bool { return explicit[i].start < explicit[j].start })
		for i := 0; i < len(explicit); i++ {
			for j := i + 1; j < len(explicit); j++ {
				a, b := explicit[i], explicit[j]
				if a.start < b.start+b.span && b.start < a.start+a.span {
					errs = append(errs,
						PointError{Kind: AddressConflict, ChannelName: profile.ChannelName, HmiName: a.point.HmiName, Reason: "overlapping explicit address offsets"},
						PointError{Kind: AddressConflict, ChannelName: profile.ChannelName, HmiName: b.point.HmiName, Reason: "overlapping explicit address offsets"},
					)
				}
			}
		}

		cursor := profile.StartAddress
		var placed []segment
		placed = append(placed, explicit...)
		for _, ip := range implicit {
			addr, ok := placeImplicit(cursor, ip.span, explicit, profile)
			if !ok {
				errs = append(errs, PointError{
					Kind:        AddressOutOfRange,
					ChannelName: profile.ChannelName,
					HmiName:     ip.point.HmiName,
					Reason:      "no room left on channel for implicit placement",
				})
				continue
			}
			placed = append(placed, segment{point: ip.point, start: addr, span: ip.span})
			cursor = addr + ip.span
		}

		if len(errs) > 0 {
			continue
		}

		job := model.ReadJob{
			ChannelName:  profile.ChannelName,
			ReadArea:     profile.ReadArea,
			StartAddress: profile.StartAddress,
			Length:       profile.Length,
		}
		sort.SliceStable(placed, func(i, j int) bool {
			oi, oj := placed[i].start-profile.StartAddress, placed[j].start-profile.StartAddress
			return oi < oj
		})
		for _, s := range placed {
			job.Points = append(job.Points, model.ReadJobPoint{
				PointKey: s.point.PointKey,
				Offset:   s.start - profile.StartAddress,
				Length:   s.span,
			})
		}
		plan.Jobs = append(plan.Jobs, job)
	}

	if len(errs) > 0 {
		return nil, &PlanError{Errors: errs}
	}
	return plan, nil
}

// placeImplicit advances cursor past any reserved explicit segment until it
// finds room for span within the channel's address range.
func placeImplicit(cursor, span int, explicit []segment, profile model.ConnectionProfile) (int, bool) {
	chanEnd := profile.StartAddress + profile.Length
	for {
		if cursor+span > chanEnd {
			return 0, false
		}
		collided := false
		for _, e := range explicit {
			if cursor < e.start+e.span && e.start < cursor+span {
				cursor = e.start + e.span
				collided = true
				break
			}
		}
		if !collided {
			return cursor, true
		}
	}
}
