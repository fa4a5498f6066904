// Package testutil provides shared test fixtures: a small TrackML event and a
// detector table whose modules match the event's hits.
package testutil

import (
	"io"
	"log"
	"os"
	"testing"

	"github.com/banshee-data/trackml.viz/internal/fsutil"
	"github.com/banshee-data/trackml.viz/internal/monitoring"
)

// EventPrefix is where NewEventFS places the fixture event.
const EventPrefix = "train/event000001000"

// DetectorsPath is where NewEventFS places the detector table; it is the
// configured default path.
const DetectorsPath = "data/detectors.csv"

// TrackParticle has three hits in HitsCSV: 5, 2 and 3 in order of distance
// from the origin. Particle 297237712845406208 has one hit and hit 1 is noise.
const TrackParticle uint64 = 22525763437723648

// HitsCSV is the hits table of the fixture event.
const HitsCSV = `hit_id,x,y,z,volume_id,layer_id,module_id
1,-64.4,-7.2,-1502.5,7,2,1
2,-55.3,0.8,-1502.5,7,2,1
3,-83.8,-1.1,-1502.5,7,2,2
4,31.0,40.0,-100.0,8,4,10
5,3.0,4.0,10.0,8,2,7
`

// TruthCSV is the truth table of the fixture event.
const TruthCSV = `hit_id,particle_id,tx,ty,tz,tpx,tpy,tpz,weight
1,0,-64.4,-7.2,-1502.5,-0.1,0.2,-1.0,0
2,22525763437723648,-55.3,0.8,-1502.5,-0.3,0.4,-10.0,0.000012
3,22525763437723648,-83.8,-1.1,-1502.5,-0.3,0.4,-10.0,0.000012
5,22525763437723648,3.0,4.0,10.0,-0.3,0.4,-10.0,0.000012
4,297237712845406208,31.0,40.0,-100.0,3.0,4.0,1.0,0.00001
`

// ParticlesCSV is the particles table of the fixture event.
const ParticlesCSV = `particle_id,vx,vy,vz,px,py,pz,q,nhits
22525763437723648,-0.009,0.009,-0.2,-0.3,0.4,-10.0,1,3
297237712845406208,0.01,-0.02,0.5,3.0,4.0,1.0,-1,1
`

// DetectorsCSV holds one row for every module hit in HitsCSV, a duplicated
// 9/2/3 row and a volume 12 strip module outside the pixel detector.
const DetectorsCSV = `volume_id,layer_id,module_id,cx,cy,cz,rot_xu,rot_xv,rot_xw,rot_yu,rot_yv,rot_yw,rot_zu,rot_zv,rot_zw,module_t,module_minhu,module_maxhu,module_hv,pitch_u,pitch_v
7,2,1,-60,-5,-1500,1,0,0,0,1,0,0,0,1,0.15,8.4,8.4,36,0.05,0.05556
7,2,2,-80,-1,-1500,1,0,0,0,1,0,0,0,1,0.15,8.4,8.4,36,0.05,0.05556
8,2,7,3,4,10,1,0,0,0,1,0,0,0,1,0.15,8.4,8.4,36,0.05,0.05556
8,4,10,30,40,-100,0,-1,0,1,0,0,0,0,1,0.15,8.4,8.4,36,0.05,0.05556
9,2,3,-40,12,1500,1,0,0,0,1,0,0,0,1,0.15,8.4,8.4,36,0.05,0.05556
9,2,3,-41,12,1500,1,0,0,0,1,0,0,0,1,0.15,8.4,8.4,36,0.05,0.05556
12,2,1,500,0,0,1,0,0,0,1,0,0,0,1,0.3,30,30,50,0.08,1.2
`

// NewEventFS returns an in-memory file system holding the fixture event at
// EventPrefix and the detector table at DetectorsPath.
func NewEventFS() *fsutil.MemoryFileSystem {
	mfs := fsutil.NewMemoryFileSystem()
	mfs.WriteFile(EventPrefix+"-hits.csv", []byte(HitsCSV))
	mfs.WriteFile(EventPrefix+"-truth.csv", []byte(TruthCSV))
	mfs.WriteFile(EventPrefix+"-particles.csv", []byte(ParticlesCSV))
	mfs.WriteFile(DetectorsPath, []byte(DetectorsCSV))
	return mfs
}

// QuietLogs mutes the monitoring logger and the standard logger until the
// test ends.
func QuietLogs(t *testing.T) {
	t.Helper()
	original := monitoring.Logf
	monitoring.SetLogger(nil)
	log.SetOutput(io.Discard)
	t.Cleanup(func() {
		monitoring.Logf = original
		log.SetOutput(os.Stderr)
	})
}
