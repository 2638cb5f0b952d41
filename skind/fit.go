package skind

// RigidError scores how well a single candidate joint explains a vertex's
// observed motion: the mean squared distance between the joint's rigid
// projection of the vertex and the vertex's target position, across all
// sampled frames. Lower is better.
//
// The sum runs sequentially in frame order with no concurrency, so
// identical snapshots always produce identical values.
func RigidError(candidate, vertex int, snapshots []*Snapshot) float64 {
	if len(snapshots) == 0 {
		return 0
	}
	var total float64
	for _, snap := range snapshots {
		d := snap.Rigid[candidate][vertex].Sub(snap.Target[vertex])
		total += d.Dot(d)
	}
	return total / float64(len(snapshots))
}
