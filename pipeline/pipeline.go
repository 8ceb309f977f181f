package pipeline

import (
	"context"
	"sort"
	"sync/atomic"
	"time"

	"github.com/LdDl/pose-go/mot"
	"github.com/LdDl/pose-go/pose"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Pipeline turns detector/pose network output of a whole video into smoothed unit-space keypoints.
// It holds no per-request state and may serve concurrent requests.
type Pipeline struct {
	opts     Options
	jointMap *pose.JointMap
	lifter   pose.Lifter
	logger   *zap.Logger
}

// New validates opts and builds a pipeline. A nil logger disables logging.
func New(opts Options, logger *zap.Logger) (*Pipeline, error) {
	if err := opts.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid pipeline options")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	jm, err := pose.JointMapFor(opts.BodyProfile)
	if err != nil {
		return nil, err
	}
	var lifter pose.Lifter
	if opts.Lift != nil {
		lifter, err = pose.NewLifter(*opts.Lift)
		if err != nil {
			return nil, err
		}
	}
	return &Pipeline{
		opts:     opts,
		jointMap: jm,
		lifter:   lifter,
		logger:   logger,
	}, nil
}

// Options returns the configuration the pipeline was built with
func (p *Pipeline) Options() Options {
	return p.opts
}

// candidate is one decoded person of one frame
type candidate struct {
	box   pose.BoundingBox
	score float64
	pose  pose.Pose
}

// slot is one reported person of one frame, keyed by the track it belongs to
type slot struct {
	key  string
	pose pose.Pose
}

// trackRef points at a slot of a frame
type trackRef struct {
	frame int
	slot  int
}

// Process runs decode, normalisation, person selection, smoothing and lifting over the input
func (p *Pipeline) Process(ctx context.Context, in *Input) (*Result, error) {
	result, _, err := p.process(ctx, in, false)
	return result, err
}

// ProcessWithRaw is Process that also returns the unsmoothed unit-space tracks, keyed like
// Frame2D.IDs ("" in single person mode). Each raw track covers every input frame.
func (p *Pipeline) ProcessWithRaw(ctx context.Context, in *Input) (*Result, map[string]pose.Track, error) {
	return p.process(ctx, in, true)
}

func (p *Pipeline) process(ctx context.Context, in *Input, keepRaw bool) (*Result, map[string]pose.Track, error) {
	if err := p.validateInput(in); err != nil {
		return nil, nil, err
	}
	fps := in.FPS
	if !(fps > 0) {
		fps = DefaultFPS
	}
	start := time.Now()
	p.logger.Info("Pose request",
		zap.String("profile", string(p.opts.BodyProfile)),
		zap.String("person_mode", string(p.opts.PersonMode)),
		zap.Int("frames", len(in.Frames)),
		zap.Int("width", in.Width),
		zap.Int("height", in.Height),
		zap.Float64("fps", fps),
	)

	decoded, err := p.decodeFrames(ctx, in)
	if err != nil {
		return nil, nil, err
	}

	slots, err := p.selectPersons(decoded)
	if err != nil {
		return nil, nil, err
	}

	var raw map[string]pose.Track
	if keepRaw {
		raw = rawTracks(slots, p.jointMap.IDs())
	}

	tracks := collectTracks(slots)
	if err := p.smoothTracks(ctx, slots, tracks, fps); err != nil {
		return nil, nil, err
	}

	result := &Result{
		Meta: Meta{
			Source: SourceMeta{
				Width:  in.Width,
				Height: in.Height,
				FPS:    in.FPS,
				Frames: len(in.Frames),
			},
			EffectiveFPS: fps,
			BodyProfile:  string(p.opts.BodyProfile),
			PersonMode:   string(p.opts.PersonMode),
			Mapping:      p.jointMap.Export(),
			Smooth: SmoothMeta{
				Type:     string(p.opts.Smooth.Mode),
				Strength: p.opts.Smooth.Strength,
			},
		},
		Kpts2D: make([]Frame2D, len(in.Frames)),
	}
	for i, frame := range in.Frames {
		out := Frame2D{
			Frame: frame.Frame,
			Time:  float64(frame.Frame) / fps,
		}
		if len(slots[i]) == 0 {
			out.Persons = []map[string]Keypoint{{}}
		}
		for _, s := range slots[i] {
			person := make(map[string]Keypoint, len(s.pose))
			for jid, kp := range s.pose {
				person[jid] = toKeypoint(kp)
			}
			out.Persons = append(out.Persons, person)
			if p.opts.PersonMode == PersonMulti {
				out.IDs = append(out.IDs, s.key)
			}
		}
		result.Kpts2D[i] = out
	}

	if p.lifter != nil {
		result.Kpts3D = p.lift(in, slots, tracks)
	}

	p.logger.Info("Pose request done",
		zap.Int("frames", len(in.Frames)),
		zap.Int("tracks", len(tracks)),
		zap.Duration("took", time.Since(start)),
	)
	return result, raw, nil
}

// rawTracks copies the selected persons into unsmoothed tracks covering every frame.
// Frames where the person is absent are empty poses.
func rawTracks(slots [][]slot, joints []string) map[string]pose.Track {
	out := make(map[string]pose.Track)
	for i, frameSlots := range slots {
		for _, s := range frameSlots {
			track, ok := out[s.key]
			if !ok {
				track = pose.Track{
					Space:  pose.SpaceUnit,
					Joints: joints,
					Frames: make([]pose.Pose, len(slots)),
				}
				for k := range track.Frames {
					track.Frames[k] = pose.Pose{}
				}
				out[s.key] = track
			}
			track.Frames[i] = s.pose.Clone()
		}
	}
	return out
}

func (p *Pipeline) validateInput(in *Input) error {
	if in == nil {
		return errors.Wrap(pose.ErrInput, "nil input")
	}
	if in.Width <= 0 || in.Height <= 0 {
		return errors.Wrapf(pose.ErrInput, "bad frame size %dx%d", in.Width, in.Height)
	}
	if in.BodyProfile != "" && pose.BodyProfile(in.BodyProfile) != p.opts.BodyProfile {
		return errors.Wrapf(pose.ErrInput, "input body profile '%s' does not match pipeline profile '%s'", in.BodyProfile, p.opts.BodyProfile)
	}
	for i, frame := range in.Frames {
		for j, det := range frame.Persons {
			hasKeypoints := len(det.Keypoints) > 0
			hasHeatmaps := det.Heatmaps != nil
			if hasKeypoints == hasHeatmaps {
				return errors.Wrapf(pose.ErrInput, "frame #%d person #%d: exactly one of keypoints and heatmaps is required", i, j)
			}
			if hasKeypoints && len(det.Keypoints) != p.jointMap.Len() {
				return errors.Wrapf(pose.ErrShape, "frame #%d person #%d: %d keypoints, profile '%s' has %d joints", i, j, len(det.Keypoints), p.opts.BodyProfile, p.jointMap.Len())
			}
		}
	}
	return nil
}

// decodeFrames converts every detection into a unit-space pose. Frames are decoded in parallel.
func (p *Pipeline) decodeFrames(ctx context.Context, in *Input) ([][]candidate, error) {
	decoded := make([][]candidate, len(in.Frames))
	total := len(in.Frames)
	var done atomic.Int64

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(p.opts.Workers)
	for i := range in.Frames {
		group.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			candidates, err := p.decodeFrame(in.Frames[i], float64(in.Width), float64(in.Height))
			if err != nil {
				return errors.Wrapf(err, "frame #%d", i)
			}
			decoded[i] = candidates
			p.logProgress("decode", int(done.Add(1)), total)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return decoded, nil
}

func (p *Pipeline) logProgress(stage string, done, total int) {
	interval := p.opts.ProgressInterval
	if interval <= 0 {
		return
	}
	if done%interval != 0 && done != total {
		return
	}
	percent := 100.0
	if total > 0 {
		percent = float64(done) * 100.0 / float64(total)
	}
	p.logger.Info("Progress",
		zap.String("stage", stage),
		zap.Int("done", done),
		zap.Int("total", total),
		zap.Float64("percent", percent),
	)
}

// decodeFrame decodes the persons of one frame. Heatmap persons are decoded as a single batch.
func (p *Pipeline) decodeFrame(frame InputFrame, width, height float64) ([]candidate, error) {
	out := make([]candidate, len(frame.Persons))
	kps := make([][]pose.Keypoint2D, len(frame.Persons))

	heatmapPersons := make([]int, 0)
	for j, det := range frame.Persons {
		if det.Heatmaps != nil {
			heatmapPersons = append(heatmapPersons, j)
			continue
		}
		kps[j] = make([]pose.Keypoint2D, len(det.Keypoints))
		for k, kp := range det.Keypoints {
			kps[j][k] = pose.Keypoint2D{X: kp[0], Y: kp[1], C: kp[2]}
		}
	}

	if len(heatmapPersons) > 0 {
		first := frame.Persons[heatmapPersons[0]].Heatmaps
		joints := p.jointMap.Len()
		gridSize, ok := pose.ElementCount(joints, first.Height, first.Width)
		if !ok || first.Height <= 0 || first.Width <= 0 {
			return nil, errors.Wrapf(pose.ErrShape, "person #%d: bad heatmap grid %dx%d", heatmapPersons[0], first.Width, first.Height)
		}
		if len(first.Data) != gridSize {
			return nil, errors.Wrapf(pose.ErrShape, "person #%d: heatmaps need %d values for %d joints, got %d", heatmapPersons[0], gridSize, joints, len(first.Data))
		}
		data := make([]float64, 0, gridSize*len(heatmapPersons))
		samples := make([]pose.CenterScale, 0, len(heatmapPersons))
		for _, j := range heatmapPersons {
			hm := frame.Persons[j].Heatmaps
			if hm.Height != first.Height || hm.Width != first.Width {
				return nil, errors.Wrapf(pose.ErrShape, "person #%d: heatmaps are %dx%d, others in the frame are %dx%d", j, hm.Width, hm.Height, first.Width, first.Height)
			}
			if len(hm.Data) != gridSize {
				return nil, errors.Wrapf(pose.ErrShape, "person #%d: heatmaps need %d values for %d joints, got %d", j, gridSize, joints, len(hm.Data))
			}
			data = append(data, hm.Data...)
			samples = append(samples, pose.BoxToCenterScale(boxOf(frame.Persons[j]), p.opts.InputSize.AspectRatio()))
		}
		tensor, err := pose.NewHeatmaps([]int{len(heatmapPersons), joints, first.Height, first.Width}, data)
		if err != nil {
			return nil, err
		}
		poses, err := pose.DecodeHeatmaps(tensor, samples, p.opts.InputSize)
		if err != nil {
			return nil, err
		}
		for n, j := range heatmapPersons {
			kps[j] = poses.Keypoints(n)
		}
	}

	for j, det := range frame.Persons {
		unit := pose.NormalizePose(p.jointMap.PoseFrom(kps[j]), width, height)
		score := meanConfidence(kps[j])
		if det.Score != nil {
			score = *det.Score
		}
		out[j] = candidate{
			box:   boxOf(det),
			score: score,
			pose:  unit,
		}
	}
	return out, nil
}

func boxOf(det Detection) pose.BoundingBox {
	return pose.BoundingBox{X: det.Box[0], Y: det.Box[1], W: det.Box[2], H: det.Box[3]}
}

func meanConfidence(kps []pose.Keypoint2D) float64 {
	if len(kps) == 0 {
		return 0
	}
	sum := 0.0
	for _, kp := range kps {
		sum += kp.C
	}
	return sum / float64(len(kps))
}

// selectPersons picks the reported persons of every frame: the best one in single mode,
// every tracked one in multi mode.
func (p *Pipeline) selectPersons(decoded [][]candidate) ([][]slot, error) {
	slots := make([][]slot, len(decoded))
	if p.opts.PersonMode == PersonSingle {
		for i, candidates := range decoded {
			if len(candidates) == 0 {
				continue
			}
			best := 0
			for j := range candidates {
				if candidates[j].score > candidates[best].score {
					best = j
				}
			}
			slots[i] = []slot{{key: "", pose: candidates[best].pose}}
		}
		return slots, nil
	}

	tracker := mot.NewByteTracker(p.opts.Tracker)
	peakActive := 0
	for i, candidates := range decoded {
		detections := make([]*mot.Person, len(candidates))
		for j, c := range candidates {
			detections[j] = mot.NewPerson(mot.NewRect(c.box.X, c.box.Y, c.box.W, c.box.H), c.score)
		}
		ids, err := tracker.MatchObjects(detections)
		if err != nil {
			return nil, errors.Wrapf(err, "frame #%d: can't match persons", i)
		}
		for j, id := range ids {
			if id == uuid.Nil {
				continue
			}
			slots[i] = append(slots[i], slot{key: id.String(), pose: candidates[j].pose})
		}
		if active := len(tracker.GetActiveTracks()); active > peakActive {
			peakActive = active
		}
	}
	p.logger.Debug("Tracking done", zap.Int("frames", len(decoded)), zap.Int("peak_active_tracks", peakActive))
	return slots, nil
}

// collectTracks groups slots by track key, frames in order
func collectTracks(slots [][]slot) map[string][]trackRef {
	tracks := make(map[string][]trackRef)
	for i, frameSlots := range slots {
		for j, s := range frameSlots {
			tracks[s.key] = append(tracks[s.key], trackRef{frame: i, slot: j})
		}
	}
	return tracks
}

func sortedKeys(tracks map[string][]trackRef) []string {
	keys := make([]string, 0, len(tracks))
	for key := range tracks {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// smoothTracks replaces the poses of every track with smoothed ones. Each track spans the frames
// from its first to its last appearance; frames in between where the person is absent are gaps.
// Only frames where the person is present are written back.
func (p *Pipeline) smoothTracks(ctx context.Context, slots [][]slot, tracks map[string][]trackRef, fps float64) error {
	joints := p.jointMap.IDs()
	for _, key := range sortedKeys(tracks) {
		refs := tracks[key]
		first := refs[0].frame
		last := refs[len(refs)-1].frame
		track := pose.Track{
			Space:  pose.SpaceUnit,
			Joints: joints,
			Frames: make([]pose.Pose, last-first+1),
		}
		for _, ref := range refs {
			track.Frames[ref.frame-first] = slots[ref.frame][ref.slot].pose
		}
		smoothed, err := smoothTrack(ctx, track, fps, p.opts.Smooth, p.opts.Workers)
		if err != nil {
			return errors.Wrapf(err, "track '%s'", key)
		}
		for _, ref := range refs {
			target := slots[ref.frame][ref.slot].pose
			for jid, kp := range smoothed.Frames[ref.frame-first] {
				// only joints the person actually carries in this frame are rewritten
				if _, ok := target[jid]; ok {
					target[jid] = kp
				}
			}
		}
		p.logger.Debug("Track smoothed",
			zap.String("track", key),
			zap.Int("frames", len(track.Frames)),
			zap.String("mode", string(p.opts.Smooth.Mode)),
		)
	}
	return nil
}

// smoothTrack runs the smoother with one unit of work per joint
func smoothTrack(ctx context.Context, track pose.Track, fps float64, opts pose.SmoothOptions, workers int) (pose.Track, error) {
	if err := opts.Validate(); err != nil {
		return pose.Track{}, err
	}
	results := make([]*pose.SmoothedSeries, len(track.Joints))
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(workers)
	for j, jid := range track.Joints {
		group.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			xs, ys, cs := track.Series(jid)
			if !pose.Observed(xs, ys) {
				return nil
			}
			series, err := pose.SmoothSeries(xs, ys, cs, fps, opts)
			if err != nil {
				return errors.Wrapf(err, "joint '%s'", jid)
			}
			results[j] = &series
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return pose.Track{}, err
	}

	out := pose.Track{
		Space:  track.Space,
		Joints: track.Joints,
		Frames: make([]pose.Pose, len(track.Frames)),
	}
	for i := range out.Frames {
		out.Frames[i] = make(pose.Pose, len(track.Joints))
	}
	for j, series := range results {
		if series == nil {
			continue
		}
		series.WriteTo(out.Frames, track.Joints[j])
	}
	return out, nil
}

// lift runs the lifter per track over the frames where the person is present
func (p *Pipeline) lift(in *Input, slots [][]slot, tracks map[string][]trackRef) []Frame3D {
	out := make([]Frame3D, 0, len(in.Frames))
	lifted := make([][]map[string]Keypoint3D, len(slots))
	for i := range slots {
		lifted[i] = make([]map[string]Keypoint3D, len(slots[i]))
	}
	joints := p.jointMap.IDs()
	for _, key := range sortedKeys(tracks) {
		refs := tracks[key]
		sequence := make([]pose.Pose, len(refs))
		for n, ref := range refs {
			sequence[n] = slots[ref.frame][ref.slot].pose
		}
		poses := p.lifter.Lift(sequence, joints)
		for n, ref := range refs {
			person := make(map[string]Keypoint3D, len(poses[n]))
			for jid, kp := range poses[n] {
				person[jid] = Keypoint3D{X: kp.X, Y: kp.Y, Z: kp.Z, C: kp.C}
			}
			lifted[ref.frame][ref.slot] = person
		}
	}
	for i, frame := range in.Frames {
		if len(lifted[i]) == 0 {
			continue
		}
		out = append(out, Frame3D{Frame: frame.Frame, Persons: lifted[i]})
	}
	return out
}
