package mot

import (
	"fmt"

	"github.com/arthurkushman/go-hungarian"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// MatchingAlgorithm is for algorithm type for matching detections to tracks
type MatchingAlgorithm uint16

const (
	// MatchingAlgorithmHungarian uses the Hungarian algorithm (Kuhn-Munkres) for optimal assignment
	MatchingAlgorithmHungarian MatchingAlgorithm = iota
	// MatchingAlgorithmGreedy uses a greedy algorithm for faster but potentially suboptimal assignment
	MatchingAlgorithmGreedy
)

// ErrUnknownAlgorithm is returned for matching algorithm names other than hungarian and greedy
var ErrUnknownAlgorithm = errors.New("unknown matching algorithm")

func (a MatchingAlgorithm) String() string {
	switch a {
	case MatchingAlgorithmHungarian:
		return "hungarian"
	case MatchingAlgorithmGreedy:
		return "greedy"
	default:
		return fmt.Sprintf("MatchingAlgorithm(%d)", uint16(a))
	}
}

// ParseMatchingAlgorithm converts "hungarian" or "greedy" into MatchingAlgorithm
func ParseMatchingAlgorithm(s string) (MatchingAlgorithm, error) {
	switch s {
	case "hungarian":
		return MatchingAlgorithmHungarian, nil
	case "greedy":
		return MatchingAlgorithmGreedy, nil
	default:
		return 0, errors.Wrapf(ErrUnknownAlgorithm, "'%s'", s)
	}
}

// ByteTrackerOptions holds ByteTrack parameters
type ByteTrackerOptions struct {
	// Maximum number of frames a person can be missing before it is removed
	MaxDisappeared int
	// Minimum IoU between predicted track box and detection box to be considered the same person
	MinIoU float64
	// High detection confidence threshold
	HighThresh float64
	// Low detection confidence threshold
	LowThresh float64
	// Algorithm to use for matching
	Algorithm MatchingAlgorithm
}

// DefaultByteTrackerOptions returns the tracker parameters used by the pose pipeline
func DefaultByteTrackerOptions() ByteTrackerOptions {
	return ByteTrackerOptions{
		MaxDisappeared: 5,
		MinIoU:         0.3,
		HighThresh:     0.5,
		LowThresh:      0.3,
		Algorithm:      MatchingAlgorithmHungarian,
	}
}

// ByteTracker is implementation of Multi-object tracker (MOT) called ByteTrack over person boxes.
type ByteTracker struct {
	maxDisappeared int
	minIoU         float64
	highThresh     float64
	lowThresh      float64
	algorithm      MatchingAlgorithm
	// Main storage
	Objects map[uuid.UUID]*Person
}

// NewByteTracker creates a new instance of ByteTracker with specified parameters.
func NewByteTracker(opts ByteTrackerOptions) *ByteTracker {
	return &ByteTracker{
		maxDisappeared: opts.MaxDisappeared,
		minIoU:         opts.MinIoU,
		highThresh:     opts.HighThresh,
		lowThresh:      opts.LowThresh,
		algorithm:      opts.Algorithm,
		Objects:        make(map[uuid.UUID]*Person),
	}
}

// bboxPair is a helper struct to pair track ID with its bounding box.
type bboxPair struct {
	ID   uuid.UUID
	BBox Rectangle
}

// MatchObjects matches person detections of the current frame with existing tracks.
// Confidence of every detection is its score.
//
// The returned slice has one entry per detection: the ID of the track the detection was merged
// into, the ID of the new track it started, or uuid.Nil if it was dropped (a low confidence
// detection nobody claimed).
func (bt *ByteTracker) MatchObjects(detections []*Person) ([]uuid.UUID, error) {
	assigned := make([]uuid.UUID, len(detections))

	// Predict next positions for all existing tracks via Kalman filter
	for _, track := range bt.Objects {
		track.PredictNextPosition()
	}

	activeTrackIDs := make([]uuid.UUID, 0, len(bt.Objects))
	activeTrackBBoxes := make([]bboxPair, 0, len(bt.Objects))
	for id, track := range bt.Objects {
		if track.GetNoMatchTimes() < bt.maxDisappeared {
			activeTrackIDs = append(activeTrackIDs, id)
			activeTrackBBoxes = append(activeTrackBBoxes, bboxPair{
				ID:   id,
				BBox: track.GetPredictedBBox(),
			})
		}
	}

	matchedTracks := make(map[uuid.UUID]struct{})
	matchedDetections := make(map[int]struct{})

	// 1. First stage: match high confidence detections
	highDetectionIndices := make([]int, 0)
	for i, det := range detections {
		if det.GetScore() >= bt.highThresh {
			highDetectionIndices = append(highDetectionIndices, i)
		}
	}
	if len(activeTrackBBoxes) > 0 && len(highDetectionIndices) > 0 {
		iouMatrix := bt.createIoUMatrix(activeTrackBBoxes, highDetectionIndices, detections)
		matches := bt.performMatching(iouMatrix, activeTrackBBoxes, highDetectionIndices)
		err := bt.processMatches(matches, activeTrackBBoxes, highDetectionIndices, iouMatrix, detections, matchedTracks, matchedDetections, assigned)
		if err != nil {
			return nil, errors.Wrap(err, "error processing matches in stage 1")
		}
	}

	// 2. Second stage: match low confidence detections with remaining tracks
	unmatchedTrackBBoxes := make([]bboxPair, 0)
	for _, id := range activeTrackIDs {
		if _, found := matchedTracks[id]; found {
			continue
		}
		if track, ok := bt.Objects[id]; ok {
			unmatchedTrackBBoxes = append(unmatchedTrackBBoxes, bboxPair{
				ID:   id,
				BBox: track.GetPredictedBBox(),
			})
		}
	}
	lowDetectionIndices := make([]int, 0)
	for i, det := range detections {
		if _, found := matchedDetections[i]; found {
			continue
		}
		if det.GetScore() < bt.highThresh && det.GetScore() >= bt.lowThresh {
			lowDetectionIndices = append(lowDetectionIndices, i)
		}
	}
	if len(unmatchedTrackBBoxes) > 0 && len(lowDetectionIndices) > 0 {
		iouMatrix := bt.createIoUMatrix(unmatchedTrackBBoxes, lowDetectionIndices, detections)
		matches := bt.performMatching(iouMatrix, unmatchedTrackBBoxes, lowDetectionIndices)
		err := bt.processMatches(matches, unmatchedTrackBBoxes, lowDetectionIndices, iouMatrix, detections, matchedTracks, matchedDetections, assigned)
		if err != nil {
			return nil, errors.Wrap(err, "error processing matches in stage 2")
		}
	}

	// 3. Add new tracks for unmatched high confidence detections
	for _, detIdx := range highDetectionIndices {
		if _, found := matchedDetections[detIdx]; found {
			continue
		}
		newPerson := detections[detIdx]
		bt.Objects[newPerson.GetID()] = newPerson
		matchedTracks[newPerson.GetID()] = struct{}{}
		assigned[detIdx] = newPerson.GetID()
	}

	// 4. Increment no_match_times for unmatched tracks
	for id, track := range bt.Objects {
		if _, found := matchedTracks[id]; !found {
			track.IncNoMatch()
		}
	}

	// 5. Remove tracks that have disappeared for too long
	for id, track := range bt.Objects {
		if track.GetNoMatchTimes() >= bt.maxDisappeared {
			delete(bt.Objects, id)
		}
	}

	return assigned, nil
}

// GetActiveTracks returns a slice of active tracks.
func (bt *ByteTracker) GetActiveTracks() []*Person {
	activeTracks := make([]*Person, 0, len(bt.Objects))
	for _, track := range bt.Objects {
		if track.GetNoMatchTimes() < bt.maxDisappeared {
			activeTracks = append(activeTracks, track)
		}
	}
	return activeTracks
}

// createIoUMatrix builds the tracks x detections IoU matrix for one matching stage.
func (bt *ByteTracker) createIoUMatrix(trackBBoxes []bboxPair, detectionIndices []int, allDetections []*Person) [][]float64 {
	iouMatrix := make([][]float64, len(trackBBoxes))
	for i, trkBox := range trackBBoxes {
		row := make([]float64, len(detectionIndices))
		for j, detIdx := range detectionIndices {
			row[j] = IoU(trkBox.BBox, allDetections[detIdx].GetBBox())
		}
		iouMatrix[i] = row
	}
	return iouMatrix
}

// performMatching returns {trackIndexInStage, detectionIndexInStage} pairs.
func (bt *ByteTracker) performMatching(iouMatrix [][]float64, trackBBoxes []bboxPair, detectionIndices []int) [][2]int {
	switch bt.algorithm {
	case MatchingAlgorithmHungarian:
		return bt.performHungarianMatching(iouMatrix, len(trackBBoxes), len(detectionIndices))
	default:
		return bt.performGreedyMatching(iouMatrix, len(trackBBoxes), len(detectionIndices))
	}
}

func (bt *ByteTracker) performHungarianMatching(iouMatrix [][]float64, numTracks, numDetections int) [][2]int {
	if numTracks == 0 || numDetections == 0 {
		return [][2]int{}
	}
	paddedMatrix := iouMatrix
	if numTracks != numDetections {
		// Rectangular matrix: pad with zero IoU to make it square
		paddedSize := maxInt(numTracks, numDetections)
		paddedMatrix = make([][]float64, paddedSize)
		for i := 0; i < paddedSize; i++ {
			paddedMatrix[i] = make([]float64, paddedSize)
			if i < numTracks {
				copy(paddedMatrix[i], iouMatrix[i])
			}
		}
	}
	assignmentsMap := hungarian.SolveMax(paddedMatrix)
	matches := make([][2]int, 0, len(assignmentsMap))
	for trackIndex, rowMap := range assignmentsMap {
		for detectionIndex := range rowMap {
			// Dummy rows and columns are not real assignments
			if trackIndex < numTracks && detectionIndex < numDetections {
				matches = append(matches, [2]int{trackIndex, detectionIndex})
			}
			break
		}
	}
	return matches
}

func (bt *ByteTracker) performGreedyMatching(iouMatrix [][]float64, numTracks, numDetections int) [][2]int {
	matches := make([][2]int, 0)
	if numTracks == 0 || numDetections == 0 {
		return matches
	}
	matchedDetIndicesInStage := make(map[int]struct{})
	for i := 0; i < numTracks; i++ {
		bestIoU := -1.0
		bestDetIdxInStage := -1
		for j := 0; j < numDetections; j++ {
			if _, found := matchedDetIndicesInStage[j]; found {
				continue
			}
			currentIoU := iouMatrix[i][j]
			if currentIoU > bestIoU && currentIoU >= bt.minIoU {
				bestIoU = currentIoU
				bestDetIdxInStage = j
			}
		}
		if bestDetIdxInStage != -1 {
			matches = append(matches, [2]int{i, bestDetIdxInStage})
			matchedDetIndicesInStage[bestDetIdxInStage] = struct{}{}
		}
	}
	return matches
}

// processMatches merges matched detections into their tracks and records the assignment.
func (bt *ByteTracker) processMatches(
	matches [][2]int,
	trackBBoxes []bboxPair,
	detectionIndices []int,
	iouMatrix [][]float64,
	allDetections []*Person,
	matchedTracks map[uuid.UUID]struct{},
	matchedDetections map[int]struct{},
	assigned []uuid.UUID,
) error {
	for _, match := range matches {
		trackIdxInStage := match[0]
		detIdxInStage := match[1]
		if iouMatrix[trackIdxInStage][detIdxInStage] < bt.minIoU {
			continue
		}
		trackID := trackBBoxes[trackIdxInStage].ID
		originalDetIdx := detectionIndices[detIdxInStage]
		track, ok := bt.Objects[trackID]
		if !ok {
			continue
		}
		if err := track.Update(allDetections[originalDetIdx]); err != nil {
			return errors.Wrapf(err, "failed to update track %s", trackID)
		}
		track.ResetNoMatch()
		matchedTracks[trackID] = struct{}{}
		matchedDetections[originalDetIdx] = struct{}{}
		assigned[originalDetIdx] = trackID
	}
	return nil
}
