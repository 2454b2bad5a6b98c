package services

import (
	"slices"

	"gonum.org/v1/gonum/stat"

	"field-route-service/internal/domain"
)

const (
	// DefaultCVTarget is the coefficient-of-variation target, in percent,
	// under which per-route workloads count as balanced.
	DefaultCVTarget = 20.0

	balanceMaxIterations = 100

	// Move scoring weights for the hybrid strategy.
	workloadWeight  = 0.7
	proximityWeight = 0.3
)

// BalanceClusters redistributes waypoints across groups according to the
// requested mode and enforces maxPerRoute on every group.
//
//   - geography: preserves clustering, only relieves oversized groups.
//   - workload: ignores geography, First-Fit-Decreasing by work duration.
//   - balanced: geography enforcement, then iterative workload moves weighted
//     by proximity until the CV target is met or no move helps.
func BalanceClusters(clusters []Cluster, maxPerRoute int, mode domain.BalanceMode, targetCV float64) []Cluster {
	if len(clusters) == 0 {
		return nil
	}
	if maxPerRoute < 1 {
		maxPerRoute = 1
	}

	switch mode {
	case domain.BalanceWorkload:
		return packByWorkload(clusters, maxPerRoute)
	case domain.BalanceGeography:
		return enforceCapacity(clusters, maxPerRoute)
	default:
		out := enforceCapacity(clusters, maxPerRoute)
		return rebalanceHybrid(out, maxPerRoute, targetCV)
	}
}

// ComputeBalanceMetrics reports the workload spread of the given per-route
// work-minute totals against a CV target in percent.
func ComputeBalanceMetrics(workloads []float64, targetCV float64) domain.BalanceMetrics {
	m := domain.BalanceMetrics{Workloads: workloads}
	if len(workloads) == 0 {
		m.IsBalanced = true
		return m
	}

	m.MeanWorkload = stat.Mean(workloads, nil)
	m.StdDev = stat.PopStdDev(workloads, nil)

	if m.MeanWorkload > 0 {
		m.CoefficientOfVariation = m.StdDev / m.MeanWorkload * 100
	}
	m.IsBalanced = m.CoefficientOfVariation <= targetCV

	return m
}

// enforceCapacity relieves every oversized group by moving its member
// furthest from the group centroid into the nearest group with room,
// creating a new group when none has any.
func enforceCapacity(clusters []Cluster, maxPerRoute int) []Cluster {
	out := cloneClusters(clusters)

	for i := 0; i < len(out); i++ {
		for len(out[i].Waypoints) > maxPerRoute {
			src := &out[i]

			far := 0
			farDist := domain.Haversine(src.Waypoints[0].Coordinates, src.Centroid)
			for j := 1; j < len(src.Waypoints); j++ {
				if d := domain.Haversine(src.Waypoints[j].Coordinates, src.Centroid); d > farDist {
					far = j
					farDist = d
				}
			}
			moved := src.Waypoints[far]

			target := -1
			targetDist := 0.0
			for j := range out {
				if j == i || len(out[j].Waypoints) >= maxPerRoute {
					continue
				}
				d := domain.Haversine(moved.Coordinates, out[j].Centroid)
				if target == -1 || d < targetDist {
					target = j
					targetDist = d
				}
			}

			src.Waypoints = slices.Delete(src.Waypoints, far, far+1)
			src.recomputeCentroid()

			if target == -1 {
				out = append(out, Cluster{
					Waypoints: []domain.Waypoint{moved},
					Centroid:  moved.Coordinates,
				})
				continue
			}

			out[target].Waypoints = append(out[target].Waypoints, moved)
			out[target].recomputeCentroid()
		}
	}

	return out
}

// packByWorkload redistributes every waypoint with First-Fit-Decreasing bin
// packing: longest jobs first, each into the least-loaded group with room.
func packByWorkload(clusters []Cluster, maxPerRoute int) []Cluster {
	var all []domain.Waypoint
	for _, c := range clusters {
		all = append(all, c.Waypoints...)
	}

	// ID tie-break keeps the packing deterministic for equal durations.
	slices.SortFunc(all, func(a, b domain.Waypoint) int {
		if a.WorkDurationMinutes != b.WorkDurationMinutes {
			return b.WorkDurationMinutes - a.WorkDurationMinutes
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})

	bins := make([]Cluster, len(clusters))

	for _, wp := range all {
		target := -1
		for j := range bins {
			if len(bins[j].Waypoints) >= maxPerRoute {
				continue
			}
			if target == -1 || bins[j].Workload() < bins[target].Workload() {
				target = j
			}
		}
		if target == -1 {
			bins = append(bins, Cluster{})
			target = len(bins) - 1
		}
		bins[target].Waypoints = append(bins[target].Waypoints, wp)
	}

	out := make([]Cluster, 0, len(bins))
	for _, b := range bins {
		if len(b.Waypoints) == 0 {
			continue
		}
		b.recomputeCentroid()
		out = append(out, b)
	}

	return out
}

// rebalanceHybrid moves single waypoints from the most-loaded group to the
// least-loaded group with room until the CV target is met, no beneficial move
// remains, or the iteration cap is reached. Candidate moves score the
// workload-gap reduction against proximity to the receiving centroid.
func rebalanceHybrid(clusters []Cluster, maxPerRoute int, targetCV float64) []Cluster {
	out := clusters

	for iter := 0; iter < balanceMaxIterations; iter++ {
		metrics := ComputeBalanceMetrics(clusterWorkloads(out), targetCV)
		if metrics.IsBalanced {
			break
		}

		heavy, light := -1, -1
		for i := range out {
			if heavy == -1 || out[i].Workload() > out[heavy].Workload() {
				heavy = i
			}
			if len(out[i].Waypoints) >= maxPerRoute {
				continue
			}
			if light == -1 || out[i].Workload() < out[light].Workload() {
				light = i
			}
		}
		if heavy == -1 || light == -1 || heavy == light {
			break
		}

		gap := float64(out[heavy].Workload() - out[light].Workload())
		if gap <= 0 {
			break
		}

		best := -1
		bestScore := 0.0
		for j, wp := range out[heavy].Waypoints {
			w := float64(wp.WorkDurationMinutes)
			newGap := gap - 2*w
			if newGap < 0 {
				newGap = -newGap
			}
			if newGap >= gap {
				continue
			}

			gapScore := (gap - newGap) / gap
			distKm := domain.Haversine(wp.Coordinates, out[light].Centroid) / 1000.0
			proxScore := 1.0 / (1.0 + distKm)

			score := workloadWeight*gapScore + proximityWeight*proxScore
			if best == -1 || score > bestScore {
				best = j
				bestScore = score
			}
		}
		if best == -1 {
			break
		}

		moved := out[heavy].Waypoints[best]
		out[heavy].Waypoints = slices.Delete(out[heavy].Waypoints, best, best+1)
		out[heavy].recomputeCentroid()
		out[light].Waypoints = append(out[light].Waypoints, moved)
		out[light].recomputeCentroid()
	}

	final := make([]Cluster, 0, len(out))
	for _, c := range out {
		if len(c.Waypoints) > 0 {
			final = append(final, c)
		}
	}
	return final
}

func clusterWorkloads(clusters []Cluster) []float64 {
	loads := make([]float64, len(clusters))
	for i := range clusters {
		loads[i] = float64(clusters[i].Workload())
	}
	return loads
}

func cloneClusters(clusters []Cluster) []Cluster {
	out := make([]Cluster, len(clusters))
	for i, c := range clusters {
		out[i] = Cluster{
			Waypoints: slices.Clone(c.Waypoints),
			Centroid:  c.Centroid,
		}
	}
	return out
}
