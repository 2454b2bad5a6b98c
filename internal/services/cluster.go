package services

import (
	"math/rand"

	"field-route-service/internal/domain"
)

const (
	lloydMaxIterations = 20
	// Centroid movement below this many degrees counts as converged.
	centroidEpsilon = 1e-5
)

// Cluster is a geographic group of waypoints around a centroid.
type Cluster struct {
	Waypoints []domain.Waypoint
	Centroid  domain.Coordinates
}

// Workload returns the cluster's total work minutes.
func (c *Cluster) Workload() int {
	total := 0
	for _, wp := range c.Waypoints {
		total += wp.WorkDurationMinutes
	}
	return total
}

func (c *Cluster) recomputeCentroid() {
	if len(c.Waypoints) == 0 {
		return
	}

	var lat, lng float64
	for _, wp := range c.Waypoints {
		lat += wp.Coordinates.Lat
		lng += wp.Coordinates.Lng
	}

	n := float64(len(c.Waypoints))
	c.Centroid = domain.Coordinates{Lat: lat / n, Lng: lng / n}
}

// ClusterWaypoints partitions waypoints into at most k geographic groups
// using k-means++ seeding followed by Lloyd iterations.
//
// Seeding is randomized through the injected source so callers control
// reproducibility. If there are no more waypoints than groups, each waypoint
// becomes its own singleton group without iterating. Empty groups are dropped.
func ClusterWaypoints(waypoints []domain.Waypoint, k int, rng *rand.Rand) []Cluster {
	if len(waypoints) == 0 {
		return nil
	}
	if k < 1 {
		k = 1
	}

	if len(waypoints) <= k {
		clusters := make([]Cluster, 0, len(waypoints))
		for _, wp := range waypoints {
			clusters = append(clusters, Cluster{
				Waypoints: []domain.Waypoint{wp},
				Centroid:  wp.Coordinates,
			})
		}
		return clusters
	}

	centroids := seedCentroids(waypoints, k, rng)

	assignment := make([]int, len(waypoints))
	for iter := 0; iter < lloydMaxIterations; iter++ {
		for i, wp := range waypoints {
			assignment[i] = nearestCentroid(wp.Coordinates, centroids)
		}

		moved := 0.0
		for ci := range centroids {
			var lat, lng float64
			count := 0
			for i, wp := range waypoints {
				if assignment[i] == ci {
					lat += wp.Coordinates.Lat
					lng += wp.Coordinates.Lng
					count++
				}
			}
			if count == 0 {
				continue
			}

			next := domain.Coordinates{Lat: lat / float64(count), Lng: lng / float64(count)}
			dLat := next.Lat - centroids[ci].Lat
			dLng := next.Lng - centroids[ci].Lng
			if d := dLat*dLat + dLng*dLng; d > moved {
				moved = d
			}
			centroids[ci] = next
		}

		if moved < centroidEpsilon*centroidEpsilon {
			break
		}
	}

	clusters := make([]Cluster, k)
	for ci := range clusters {
		clusters[ci].Centroid = centroids[ci]
	}
	for i, wp := range waypoints {
		ci := assignment[i]
		clusters[ci].Waypoints = append(clusters[ci].Waypoints, wp)
	}

	out := make([]Cluster, 0, k)
	for _, c := range clusters {
		if len(c.Waypoints) == 0 {
			continue
		}
		c.recomputeCentroid()
		out = append(out, c)
	}

	return out
}

// seedCentroids picks k initial centroids with k-means++: the first at
// random, each subsequent one with probability proportional to its squared
// distance from the nearest centroid already chosen.
func seedCentroids(waypoints []domain.Waypoint, k int, rng *rand.Rand) []domain.Coordinates {
	centroids := make([]domain.Coordinates, 0, k)
	centroids = append(centroids, waypoints[rng.Intn(len(waypoints))].Coordinates)

	for len(centroids) < k {
		weights := make([]float64, len(waypoints))
		total := 0.0
		for i, wp := range waypoints {
			d := nearestCentroidDistance(wp.Coordinates, centroids)
			weights[i] = d * d
			total += weights[i]
		}

		if total == 0 {
			// All remaining points coincide with a centroid; any pick works.
			centroids = append(centroids, waypoints[rng.Intn(len(waypoints))].Coordinates)
			continue
		}

		target := rng.Float64() * total
		acc := 0.0
		picked := len(waypoints) - 1
		for i, w := range weights {
			acc += w
			if acc >= target {
				picked = i
				break
			}
		}
		centroids = append(centroids, waypoints[picked].Coordinates)
	}

	return centroids
}

func nearestCentroid(p domain.Coordinates, centroids []domain.Coordinates) int {
	best := 0
	bestDist := domain.Haversine(p, centroids[0])
	for i := 1; i < len(centroids); i++ {
		if d := domain.Haversine(p, centroids[i]); d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}

func nearestCentroidDistance(p domain.Coordinates, centroids []domain.Coordinates) float64 {
	best := domain.Haversine(p, centroids[0])
	for i := 1; i < len(centroids); i++ {
		if d := domain.Haversine(p, centroids[i]); d < best {
			best = d
		}
	}
	return best
}
