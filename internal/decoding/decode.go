package decoding

import (
	"math"

	"github.com/tomtom-odat/odat-go/internal/geocoord"
	"github.com/tomtom-odat/odat-go/internal/openlr"
	"github.com/tomtom-odat/odat-go/internal/roadmap"
)

// Decode finds a node-connected, peer-free chain of Lines matching ref
// against reader under config, reporting events to observer (which may
// be nil). It returns (nil, nil, nil) -- not an error -- when no chain
// satisfies the configuration, mirroring the "decoder exception caught
// and converted to None" contract spec.md assigns to
// overlay.match/reader.match. A non-nil error indicates a malformed
// reference (fewer than two LRPs) or a map-reader failure.
func Decode(reader roadmap.MapReader, ref *openlr.LineLocationReference, config roadmap.DecodeConfig, observer roadmap.Observer) (*roadmap.LineLocation, geocoord.LineString, error) {
	n := len(ref.Points)
	if n < 2 {
		return nil, nil, errShortReference
	}

	firstCands, err := candidatesAt(reader, ref, 0, config, observer)
	if err != nil {
		return nil, nil, err
	}
	viableFirst := filterViable(firstCands)
	sortByScoreDesc(viableFirst)

	for _, start := range viableFirst {
		lines, decodedLS, ok, err := extendChain(reader, ref, config, observer, start)
		if err != nil {
			return nil, nil, err
		}
		if ok {
			if observer != nil {
				observer.OnLocationEndReached(n-1, &roadmap.Candidate{Line: lines[len(lines)-1]})
			}
			return &roadmap.LineLocation{Lines: lines, POff: ref.PosOff, NOff: ref.NegOff}, decodedLS, nil
		}
	}

	if observer != nil {
		observer.OnMatchingFail("no candidate chain satisfied the configuration")
	}
	return nil, nil, nil
}

// extendChain attempts to complete the LRP chain starting from the
// candidate `start` chosen for LRP 0, trying each subsequent LRP's
// viable candidates in score order and backtracking is intentionally
// NOT performed beyond the immediate next LRP: once a connecting path
// to a given next-candidate is found, it is kept. This greedy-per-hop
// strategy trades completeness for the bounded run time a diagnostic
// tool run over large batches needs.
func extendChain(reader roadmap.MapReader, ref *openlr.LineLocationReference, config roadmap.DecodeConfig, observer roadmap.Observer, start *roadmap.Candidate) ([]*roadmap.Line, geocoord.LineString, bool, error) {
	n := len(ref.Points)
	lines := []*roadmap.Line{start.Line}
	chosen := []*roadmap.Candidate{start}
	currentNode := start.Line.EndNode
	prevLine := start.Line

	for i := 1; i < n; i++ {
		toCands, err := candidatesAt(reader, ref, i, config, observer)
		if err != nil {
			return nil, nil, false, err
		}
		viable := filterViable(toCands)
		sortByScoreDesc(viable)

		fromLRP := ref.Points[i-1]
		maxLen := math.Inf(1)
		if !config.IgnorePathLength && !config.AnyPath {
			maxLen = fromLRP.DNP * (1.0 + config.PathLengthToleranceFraction)
		}

		matched := false
		for _, toCand := range viable {
			if toCand.Line == prevLine || roadmap.ArePeers(toCand.Line, prevLine) {
				continue
			}

			var connector []*roadmap.Line
			var pathLen float64
			var found bool

			if currentNode == toCand.Line.StartNode {
				connector, pathLen, found = nil, 0, true
			} else {
				connector, pathLen, found, err = shortestPath(reader, currentNode, toCand.Line.StartNode, prevLine, fromLRP.LFRCNP, config, maxLen)
				if err != nil {
					return nil, nil, false, err
				}
			}

			if !found {
				continue
			}
			if pathLen > maxLen {
				if observer != nil {
					observer.OnRouteFailLength(i-1, i)
				}
				continue
			}

			lines = append(lines, connector...)
			lines = append(lines, toCand.Line)
			currentNode = toCand.Line.EndNode
			prevLine = toCand.Line
			chosen = append(chosen, toCand)
			matched = true
			if observer != nil {
				observer.OnRouteSuccess(i-1, i, connector)
			}
			break
		}

		if !matched {
			if observer != nil {
				observer.OnRouteFail(i-1, i)
			}
			return nil, nil, false, nil
		}
	}

	// Decode reports the last LRP's placement itself once this returns.
	if observer != nil {
		for i, c := range chosen[:n-1] {
			observer.OnLocationEndReached(i, c)
		}
	}

	geoms := make([]geocoord.LineString, len(lines))
	for i, l := range lines {
		geoms[i] = l.Geometry
	}
	return lines, geocoord.JoinLines(geoms), true, nil
}

func candidatesAt(reader roadmap.MapReader, ref *openlr.LineLocationReference, idx int, config roadmap.DecodeConfig, observer roadmap.Observer) ([]*roadmap.Candidate, error) {
	lrp := ref.Points[idx]
	lines, err := reader.FindLinesCloseTo(lrp.Coordinates, lrpRadius(config))
	if err != nil {
		return nil, err
	}
	isLast := idx == len(ref.Points)-1
	return MakeCandidates(idx, lrp, lines, config, isLast, observer), nil
}

func filterViable(cands []*roadmap.Candidate) []*roadmap.Candidate {
	out := make([]*roadmap.Candidate, 0, len(cands))
	for _, c := range cands {
		if c.FRCReject || c.BearingReject || c.ScoreReject {
			continue
		}
		out = append(out, c)
	}
	return out
}

func sortByScoreDesc(cands []*roadmap.Candidate) {
	for i := 1; i < len(cands); i++ {
		for j := i; j > 0 && cands[j-1].TotalScore < cands[j].TotalScore; j-- {
			cands[j-1], cands[j] = cands[j], cands[j-1]
		}
	}
}

// shortestPath runs a Dijkstra search over reader's node graph from
// fromNode to a node named targetNode, excluding the peer of
// entryLine at the first hop and of whichever line most recently
// entered a node thereafter, and excluding any line whose FRC exceeds
// maxFRC unless the config ignores FRC or is AnyPath. It returns every
// line on the path from fromNode up to and including the line that
// enters targetNode (the caller appends the candidate line starting at
// targetNode itself), the total traversed length, and whether a path
// was found within maxLen.
func shortestPath(reader roadmap.MapReader, fromNode, targetNode string, entryLine *roadmap.Line, maxFRC openlr.FRC, config roadmap.DecodeConfig, maxLen float64) ([]*roadmap.Line, float64, bool, error) {
	if fromNode == targetNode {
		return nil, 0, true, nil
	}

	dist := map[string]float64{fromNode: 0}
	parentNode := map[string]string{}
	parentLine := map[string]*roadmap.Line{}
	visited := map[string]bool{}
	enteredBy := map[string]*roadmap.Line{fromNode: entryLine}

	for {
		// Pick the unvisited node with the smallest known distance.
		curNode := ""
		curDist := math.Inf(1)
		for node, d := range dist {
			if !visited[node] && d < curDist {
				curNode, curDist = node, d
			}
		}
		if curNode == "" {
			return nil, 0, false, nil
		}
		if curNode == targetNode {
			break
		}
		visited[curNode] = true
		if curDist > maxLen {
			continue
		}

		nodeObj, err := reader.GetNode(curNode)
		if err != nil {
			continue
		}

		for _, line := range nodeObj.OutgoingLines(enteredBy[curNode]) {
			if !config.IgnoreFRC && !config.AnyPath && int(line.FRC) > int(maxFRC) {
				continue
			}
			next := line.EndNode
			if visited[next] {
				continue
			}
			newDist := curDist + line.Length
			if newDist > maxLen {
				continue
			}
			if existing, ok := dist[next]; !ok || newDist < existing {
				dist[next] = newDist
				parentNode[next] = curNode
				parentLine[next] = line
				enteredBy[next] = line
			}
		}
	}

	if _, ok := dist[targetNode]; !ok {
		return nil, 0, false, nil
	}

	var path []*roadmap.Line
	node := targetNode
	for node != fromNode {
		line := parentLine[node]
		path = append([]*roadmap.Line{line}, path...)
		node = parentNode[node]
	}
	return path, dist[targetNode], true, nil
}

type decodeErr string

func (e decodeErr) Error() string { return string(e) }

const errShortReference = decodeErr("openlr: line location reference needs at least two LRPs")
