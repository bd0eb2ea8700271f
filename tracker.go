package flowvel

import (
	"fmt"
	"image"
	"log"
	"math"

	"gocv.io/x/gocv"
)

const (
	// FeatureExtractionDynamic re-selects features on every frame
	FeatureExtractionDynamic = 1
	// FeatureExtractionOnce selects features once at initialisation
	FeatureExtractionOnce = 2
	// MethodLucasKanade tracks features with pyramidal Lucas-Kanade sparse
	// optical flow
	MethodLucasKanade = 100
	// FeatureExtractionSimple selects features with OpenCV's
	// goodFeaturesToTrack corner detection
	FeatureExtractionSimple = 1000
)

const (
	// maxFeatures is the cap on the number of features selected per frame
	maxFeatures = 1000
	// qualityLevel is the minimum corner response relative to the strongest
	// corner in the frame
	qualityLevel = 0.1
	// minDistance is the minimum pixel separation between selected features
	minDistance = 8.0
	// flowWindow is the search window size used by the optical flow tracker
	flowWindow = 16
	// pyramidLevels is the maximum pyramid level used by the optical flow
	// tracker
	pyramidLevels = 2
	// maxIterations and epsilon terminate the iterative flow refinement,
	// whichever is hit first
	maxIterations = 8
	epsilon       = 0.03
)

// Tracker estimates ground velocity from a downward-facing camera by
// tracking sparse features between consecutive frames.  A Tracker owns its
// reference frame and feature set and is not safe for concurrent use, the
// caller must serialize access per instance.
type Tracker struct {
	// method selects the tracking algorithm family
	method int
	// frameInterval is the elapsed time between frames in seconds
	frameInterval float32
	// physical camera parameters in meters
	focalLength  float32
	sensorWidth  float32
	sensorHeight float32
	// horizontal and vertical field of view in radians, derived once at
	// construction
	fovH float32
	fovV float32
	// pixel dimensions of the most recently stored reference frame
	frameWidth  int
	frameHeight int
	// prevFrame is the grayscale reference frame features are tracked from
	prevFrame gocv.Mat
	// features holds the reference frame's feature points as an Nx1
	// CV_32FC2 Mat
	features gocv.Mat
	// criteria terminates the iterative optical flow refinement
	criteria gocv.TermCriteria
}

// VelocityResult holds the per-feature velocity estimates from a single
// tracking cycle.  VelX and VelY are parallel slices of ground velocity in
// m/s along the vehicle forward and lateral axes, with NewFeatures and
// OldFeatures giving each surviving feature's location in the current and
// previous frame.  Success reports that the cycle ran to completion, an
// empty result with Success true is the normal output of the first call and
// of a cycle whose underlying computation faulted.
type VelocityResult struct {
	VelX        []float32
	VelY        []float32
	NewFeatures []gocv.Point2f
	OldFeatures []gocv.Point2f
	Success     bool
}

// Count returns the number of features that survived the tracking cycle
func (r VelocityResult) Count() int {
	return len(r.VelX)
}

// NewTracker returns a Tracker configured with the camera's physical
// parameters.  Focal length and sensor dimensions are in meters and must be
// positive, frameInterval is the initial time step between frames in
// seconds.  The field of view along each axis is derived from the sensor
// size and focal length and is fixed for the life of the Tracker.
func NewTracker(method int, frameInterval, focalLength, sensorWidth,
	sensorHeight float32) (*Tracker, error) {

	if method != MethodLucasKanade {
		return nil, fmt.Errorf("unsupported tracking method %d", method)
	}

	if focalLength <= 0 || sensorWidth <= 0 || sensorHeight <= 0 {
		return nil, fmt.Errorf("camera parameters must be positive, got "+
			"focal=%f sensor=%fx%f", focalLength, sensorWidth, sensorHeight)
	}

	t := &Tracker{
		method:        method,
		frameInterval: frameInterval,
		focalLength:   focalLength,
		sensorWidth:   sensorWidth,
		sensorHeight:  sensorHeight,
		prevFrame:     gocv.NewMat(),
		features:      gocv.NewMat(),
		criteria: gocv.NewTermCriteria(gocv.Count|gocv.EPS, maxIterations,
			epsilon),
	}

	// FOV = 2 * arctan(sensor size / (2 * focal length))
	t.fovH = 2.0 * float32(math.Atan(float64(sensorWidth/(2.0*focalLength))))
	t.fovV = 2.0 * float32(math.Atan(float64(sensorHeight/(2.0*focalLength))))

	return t, nil
}

// SetFrameInterval updates the time step in seconds used by the next
// velocity computation.  Call it whenever the frame rate changes so that
// velocity estimates stay accurate.
func (t *Tracker) SetFrameInterval(seconds float64) {
	t.frameInterval = float32(seconds)
}

// HasFeatures returns true once feature extraction has found at least one
// trackable point
func (t *Tracker) HasFeatures() bool {
	return !t.features.Empty()
}

// ExtractFeatures selects trackable corner features in img and makes img
// the reference frame for the next tracking cycle.  BGR input is converted
// to grayscale.  When no qualifying corners exist the previous reference
// frame and feature set are left untouched.
func (t *Tracker) ExtractFeatures(img gocv.Mat) {

	if img.Empty() {
		return
	}

	gray := toGray(img)

	corners := gocv.NewMat()
	gocv.GoodFeaturesToTrack(gray, &corners, maxFeatures, qualityLevel,
		minDistance)

	if corners.Empty() {
		// a failed re-seed must not disturb existing tracking state
		corners.Close()
		gray.Close()
		return
	}

	t.setReference(gray, corners)
}

// ComputeVelocity tracks the reference features into img and returns the
// ground velocity of each surviving feature, using height as the camera's
// height above ground in meters.  The first call on a fresh Tracker only
// seeds the feature set and returns an empty successful result.  Every
// completed call re-seeds the feature set from img so the Tracker is ready
// for the next frame.
//
// An OpenCV fault on a malformed frame is caught here, logged as a warning
// and reported as an empty successful result so a single bad frame cannot
// abort the caller's control loop.
func (t *Tracker) ComputeVelocity(img gocv.Mat, height float32) (res VelocityResult) {

	res.Success = true

	defer func() {
		if r := recover(); r != nil {
			log.Printf("flowvel: optical flow tracking failed: %v", r)
			res = VelocityResult{Success: true}
		}
	}()

	if img.Empty() {
		// malformed input, skip the cycle without touching tracking state
		log.Printf("flowvel: skipping empty input frame")
		return res
	}

	// nothing to track against on the first call, seed only
	if t.prevFrame.Empty() {
		t.ExtractFeatures(img)
		return res
	}

	gray := toGray(img)

	// gray is handed to reseed below which takes ownership, only close it
	// here if we bail out before that happens
	grayOwned := true
	defer func() {
		if grayOwned {
			gray.Close()
		}
	}()

	if t.features.Empty() {
		// the previous cycle's re-seed found no corners, recover by
		// re-seeding from this frame instead of running flow on nothing
		t.reseed(gray)
		grayOwned = false
		return res
	}

	if gray.Cols() != t.prevFrame.Cols() || gray.Rows() != t.prevFrame.Rows() {
		// the flow computation requires both frames to share the same
		// geometry, and OpenCV aborts the process on a size mismatch
		// rather than raising a catchable fault.  Treat the old reference
		// as stale and start over from the new frame.
		log.Printf("flowvel: frame size changed from %dx%d to %dx%d, re-seeding",
			t.prevFrame.Cols(), t.prevFrame.Rows(), gray.Cols(), gray.Rows())
		t.reseed(gray)
		grayOwned = false
		return res
	}

	nextPts := gocv.NewMat()
	defer nextPts.Close()
	status := gocv.NewMat()
	defer status.Close()
	flowErr := gocv.NewMat()
	defer flowErr.Close()

	gocv.CalcOpticalFlowPyrLKWithParams(t.prevFrame, gray, t.features,
		nextPts, &status, &flowErr, image.Pt(flowWindow, flowWindow),
		pyramidLevels, t.criteria, 0, 1e-4)

	// pixel velocities for the features that tracked successfully.  For a
	// downward-facing camera dy maps to the vehicle forward axis and -dx to
	// the lateral axis
	var velsX, velsY []float32
	var newPts, oldPts []gocv.Point2f

	for i := 0; i < nextPts.Rows(); i++ {

		if status.GetUCharAt(i, 0) == 0 {
			// feature failed to track, drop it from this cycle
			continue
		}

		oldVec := t.features.GetVecfAt(i, 0)
		newVec := nextPts.GetVecfAt(i, 0)

		dx := newVec[0] - oldVec[0]
		dy := newVec[1] - oldVec[1]

		velsX = append(velsX, dy/t.frameInterval)
		velsY = append(velsY, -dx/t.frameInterval)
		newPts = append(newPts, gocv.Point2f{X: newVec[0], Y: newVec[1]})
		oldPts = append(oldPts, gocv.Point2f{X: oldVec[0], Y: oldVec[1]})
	}

	// fresh features for the next cycle, the new frame becomes the
	// reference and its dimensions the conversion dimensions
	t.reseed(gray)
	grayOwned = false

	// convert each pixel velocity to an angular velocity via the field of
	// view, then to ground velocity: v = h * tan(w * dt) / dt
	res.VelX = make([]float32, len(velsX))
	res.VelY = make([]float32, len(velsY))

	for i := range velsX {
		angVelX := velsX[i] * t.fovV / float32(t.frameHeight)
		angVelY := velsY[i] * t.fovH / float32(t.frameWidth)

		res.VelX[i] = height *
			float32(math.Tan(float64(angVelX*t.frameInterval))) / t.frameInterval
		res.VelY[i] = height *
			float32(math.Tan(float64(angVelY*t.frameInterval))) / t.frameInterval
	}

	res.NewFeatures = newPts
	res.OldFeatures = oldPts

	return res
}

// Close frees the Mats owned by the Tracker
func (t *Tracker) Close() error {

	err := t.prevFrame.Close()

	if err2 := t.features.Close(); err == nil {
		err = err2
	}

	return err
}

// reseed replaces the feature set and reference frame wholesale from the
// given grayscale frame, taking ownership of gray.  Unlike ExtractFeatures
// the frame is stored even when no corners qualify, the empty feature set
// is handled at the start of the next cycle.
func (t *Tracker) reseed(gray gocv.Mat) {

	corners := gocv.NewMat()
	gocv.GoodFeaturesToTrack(gray, &corners, maxFeatures, qualityLevel,
		minDistance)

	t.setReference(gray, corners)
}

// setReference stores gray and corners as the reference frame and feature
// set for the next cycle, releasing the previously held Mats
func (t *Tracker) setReference(gray, corners gocv.Mat) {

	t.prevFrame.Close()
	t.features.Close()

	t.prevFrame = gray
	t.features = corners
	t.frameWidth = gray.Cols()
	t.frameHeight = gray.Rows()
}

// toGray returns a single channel copy of img, converting from BGR when
// needed.  The caller owns the returned Mat.
func toGray(img gocv.Mat) gocv.Mat {

	gray := gocv.NewMat()

	if img.Channels() == 3 {
		gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)
	} else {
		img.CopyTo(&gray)
	}

	return gray
}
