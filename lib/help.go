package lib

import (
	"fmt"
	"io"
)

// ExampleConfig is a complete config file for a small synthetic run. It is
// printed by the "help" mode.
const ExampleConfig = `# Lab-frame diagnostics. Times are in seconds and lengths in meters.
[LabFrame]
ZMin = -30e-6
ZMax = 0
# The moving window's velocity in the lab frame.
VWindow = 0
# Snapshot i is taken at t_lab = i*DtSnapshots.
NSnapshots = 2
DtSnapshots = 5e-14
# Snapshots and Slices pick indices with a sequence like "0..4 + 10"
# instead of NSnapshots and NSlices.
Slices = 1
DtSlices = 5e-14

[Boost]
Gamma = 2
Direction = z

[Slice]
Lo = 0, -4e-6, -20e-6
Hi = 0, 4e-6, -5e-6
ParticleWidth = 2.5e-7

[Output]
Root = lab_frame_data
# Comma-separated subset of Ex, Ey, Ez, Bx, By, Bz, jx, jy, jz, rho.
# Fields = Ex, By
Particles = true
NumBuffer = 32
MaxBoxSize = 16
# Catalog = catalog.db
# Fields plotted along the boost axis by confirm.
Lineout = Ex

[Run]
Steps = 200
Threads = -1
Ranks = 2
# crash or warn
CheckStrictness = crash

# The synthetic boosted-frame simulation.
[Source]
Cells = 8, 8, 64
ProbLo = -4e-6, -4e-6, -48e-6
ProbHi = 4e-6, 4e-6, 16e-6
# Dt defaults to CFL times the smallest cell size over c.
CFL = 0.5
WaveAmplitude = 1e9
WaveNumber = 1e6
AxialE = 0
AxialB = 0
Rho = 1e-3
Jz = 0
Seed = 1

[Beam "electrons"]
N = 1000
Center = 0, 0, -20e-6
Width = 2e-6, 2e-6, 5e-6
U = 0, 0, 0
Weight = 1
`

// PrintHelp writes the usage message and an example config file to w.
func PrintHelp(w io.Writer) {
	fmt.Fprintf(w, `labframe writes lab-frame snapshots and slices of a boosted-frame run.

Usage:
    labframe help
    labframe check   <config file> [--Section.Key Value ...]
    labframe run     <config file> [--Section.Key Value ...]
    labframe confirm <config file> [--Section.Key Value ...]

check validates a config file, run performs a synthetic run and writes its
diagnostics, and confirm reads back and verifies a run's output.
Command line arguments override the config file, e.g. --Boost.Gamma 10 or
--Beam.electrons.N 500.

Example config file:

%s`, ExampleConfig)
}
