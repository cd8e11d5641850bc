package lib

/* parse.go handles reading config files and command line arguments. */

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/gcfg.v1"

	"github.com/phil-mansfield/labframe/lib/btd"
	"github.com/phil-mansfield/labframe/lib/format"
	"github.com/phil-mansfield/labframe/lib/geom"
	"github.com/phil-mansfield/labframe/lib/lorentz"
	"github.com/phil-mansfield/labframe/lib/synth"
)

// RawArgs stores the unprocessed values which the user assigned to each config
// variable. Every variable is a string so that unset variables can be told
// apart from variables set to zero.
type RawArgs struct {
	LabFrame struct {
		ZMin, ZMax, VWindow     string
		NSnapshots, DtSnapshots string
		Snapshots               string
		NSlices, DtSlices       string
		Slices                  string
	}
	Boost struct {
		Gamma, Direction string
	}
	Slice struct {
		Lo, Hi, ParticleWidth string
	}
	Output struct {
		Root, RunID, Fields, Particles string
		NumBuffer, MaxBoxSize          string
		Catalog, Lineout               string
	}
	Run struct {
		Steps, Threads, Ranks, CheckStrictness string
	}
	Source struct {
		Cells, ProbLo, ProbHi, Dt, CFL string
		WaveAmplitude, WaveNumber      string
		AxialE, AxialB, Rho, Jz, Seed  string
		MaxBoxSize                     string
	}
	Beam map[string]*RawBeam
}

// RawBeam is a [Beam "name"] section.
type RawBeam struct {
	N, Center, Width, U, Weight string
}

// Args stores configuration information. It is a post-processed version of
// RawArgs.
type Args struct {
	Config   *btd.Config
	Source   *synth.Config
	Geometry geom.Geometry
	// Dt is the boosted-frame time step.
	Dt float64

	Steps, Threads int
	Strictness     CheckStrictness
	CatalogPath    string
	// Lineouts lists the fields plotted by "confirm" mode.
	Lineouts []string
}

// ParseCommandLine parses the command line arguments and returns the mode
// labframe is being run in, the name of the config file, and any arguments
// which were set. Expects that the arguments are presented in the order:
// $ labframe <mode> <config file> [--<Section.Key1> <Value1>] ...
// The "help" mode doesn't need a config file.
func ParseCommandLine(argv []string) (
	mode Mode, configFile string, args *RawArgs, err error,
) {
	if len(argv) == 0 {
		return 0, "", nil, fmt.Errorf("No mode was given. Run " +
			"'labframe help' to see the valid modes.")
	}
	mode, err = ParseMode(argv[0])
	if err != nil {
		return 0, "", nil, err
	}
	if mode == HelpMode {
		return mode, "", &RawArgs{}, nil
	}
	if len(argv) < 2 {
		return 0, "", nil, fmt.Errorf("The '%s' mode needs a config file.",
			argv[0])
	}
	configFile = argv[1]

	flags := argv[2:]
	if len(flags)%2 != 0 {
		return 0, "", nil, fmt.Errorf("The command line argument '%s' is "+
			"missing a value.", flags[len(flags)-1])
	}
	args, err = parseFlags(flags)
	return mode, configFile, args, err
}

// parseFlags converts "--Section.Key Value" and "--Section.Name.Key Value"
// pairs into a config snippet so that gcfg does all the name matching.
func parseFlags(flags []string) (*RawArgs, error) {
	sections := map[string][]string{}
	order := []string{}
	for i := 0; i < len(flags); i += 2 {
		name, val := flags[i], flags[i+1]
		if !strings.HasPrefix(name, "--") {
			return nil, fmt.Errorf("Expected a command line argument of "+
				"the form --Section.Key, but got '%s'.", name)
		}
		tok := strings.Split(strings.TrimPrefix(name, "--"), ".")
		for _, t := range tok {
			if t == "" {
				tok = nil
				break
			}
		}
		var sec, key string
		switch len(tok) {
		case 2:
			sec, key = tok[0], tok[1]
		case 3:
			// --Beam.electrons.N sets N in [Beam "electrons"].
			sec, key = fmt.Sprintf("%s %q", tok[0], tok[1]), tok[2]
		default:
			return nil, fmt.Errorf("The command line argument '%s' should "+
				"name both a section and a key, e.g. --Boost.Gamma.", name)
		}
		if _, ok := sections[sec]; !ok {
			order = append(order, sec)
		}
		sections[sec] = append(sections[sec],
			fmt.Sprintf("%s = %s", key, strconv.Quote(val)))
	}

	sb := &strings.Builder{}
	for _, sec := range order {
		fmt.Fprintf(sb, "[%s]\n%s\n", sec, strings.Join(sections[sec], "\n"))
	}

	args := &RawArgs{}
	if err := gcfg.ReadStringInto(args, sb.String()); err != nil {
		return nil, fmt.Errorf("Could not parse the command line "+
			"arguments: %w", err)
	}
	return args, nil
}

// ParseConfigFile parses arguments from a config file.
func ParseConfigFile(fileName string) (*RawArgs, error) {
	args := &RawArgs{}
	if err := gcfg.ReadFileInto(args, fileName); err != nil {
		return nil, fmt.Errorf("Could not parse the config file %s: %w",
			fileName, err)
	}
	return args, nil
}

// Overwrite arguments in arg1 which have been set in arg2.
func (arg1 *RawArgs) Overwrite(arg2 *RawArgs) {
	v1, v2 := reflect.ValueOf(arg1).Elem(), reflect.ValueOf(arg2).Elem()
	for i := 0; i < v1.NumField(); i++ {
		if v1.Field(i).Kind() == reflect.Struct {
			overwriteStrings(v1.Field(i), v2.Field(i))
		}
	}

	for name, b2 := range arg2.Beam {
		if arg1.Beam == nil {
			arg1.Beam = map[string]*RawBeam{}
		}
		b1, ok := arg1.Beam[name]
		if !ok {
			b1 = &RawBeam{}
			arg1.Beam[name] = b1
		}
		overwriteStrings(reflect.ValueOf(b1).Elem(), reflect.ValueOf(b2).Elem())
	}
}

func overwriteStrings(s1, s2 reflect.Value) {
	for j := 0; j < s1.NumField(); j++ {
		if x := s2.Field(j).String(); x != "" {
			s1.Field(j).SetString(x)
		}
	}
}

// Process converts the raw user input to a format which is more useful for
// internal functions. Very simple validation will be done here, but nothing
// which requires interacting with external files or constructing the
// diagnostics.
func (args *RawArgs) Process() (*Args, error) {
	p := &parser{}
	cfg := btd.DefaultConfig()
	out := &Args{Config: cfg, Source: &synth.Config{}}

	lf := &args.LabFrame
	cfg.ZMinLab = p.float("LabFrame.ZMin", lf.ZMin, math.NaN())
	cfg.ZMaxLab = p.float("LabFrame.ZMax", lf.ZMax, math.NaN())
	cfg.VWindowLab = p.float("LabFrame.VWindow", lf.VWindow, 0)
	cfg.NSnapshots = p.int("LabFrame.NSnapshots", lf.NSnapshots, 0)
	cfg.DtSnapshotsLab = p.float("LabFrame.DtSnapshots", lf.DtSnapshots, 0)
	cfg.SnapshotIndices = p.sequence("LabFrame.Snapshots", lf.Snapshots)
	cfg.NSlices = p.int("LabFrame.NSlices", lf.NSlices, 0)
	cfg.DtSlicesLab = p.float("LabFrame.DtSlices", lf.DtSlices, 0)
	cfg.SliceIndices = p.sequence("LabFrame.Slices", lf.Slices)

	cfg.GammaBoost = p.float("Boost.Gamma", args.Boost.Gamma, math.NaN())
	cfg.BoostDirection = p.axis("Boost.Direction", args.Boost.Direction, 2)

	cfg.SliceDomain.Lo = p.vec("Slice.Lo", args.Slice.Lo, [3]float64{})
	cfg.SliceDomain.Hi = p.vec("Slice.Hi", args.Slice.Hi, [3]float64{})
	cfg.ParticleSliceWidthLab = p.float("Slice.ParticleWidth",
		args.Slice.ParticleWidth, 0)

	o := &args.Output
	if o.Root != "" {
		cfg.Root = o.Root
	}
	cfg.RunID = o.RunID
	cfg.FieldNames = splitNames(o.Fields)
	out.Lineouts = splitNames(o.Lineout)
	cfg.DoParticles = p.bool("Output.Particles", o.Particles, true)
	cfg.NumBuffer = p.int("Output.NumBuffer", o.NumBuffer, cfg.NumBuffer)
	cfg.MaxBoxSize = p.int("Output.MaxBoxSize", o.MaxBoxSize, cfg.MaxBoxSize)
	out.CatalogPath = o.Catalog

	r := &args.Run
	out.Steps = p.int("Run.Steps", r.Steps, 0)
	out.Threads = p.int("Run.Threads", r.Threads, -1)
	cfg.Ranks = p.int("Run.Ranks", r.Ranks, cfg.Ranks)
	switch strings.ToLower(r.CheckStrictness) {
	case "", "crash":
		out.Strictness = CrashOnError
	case "warn":
		out.Strictness = WarnOnError
	default:
		p.fail("Run.CheckStrictness", r.CheckStrictness,
			"must be 'crash' or 'warn'")
	}

	s := &args.Source
	cells := p.intVec("Source.Cells", s.Cells)
	lo := p.vec("Source.ProbLo", s.ProbLo, [3]float64{})
	hi := p.vec("Source.ProbHi", s.ProbHi, [3]float64{})
	out.Geometry = geom.NewGeometry(cells, geom.RealBox{Lo: lo, Hi: hi})

	src := out.Source
	src.Dir = cfg.BoostDirection
	src.WaveAmplitude = p.float("Source.WaveAmplitude", s.WaveAmplitude, 0)
	src.WaveNumber = p.float("Source.WaveNumber", s.WaveNumber, 0)
	src.AxialE = p.float("Source.AxialE", s.AxialE, 0)
	src.AxialB = p.float("Source.AxialB", s.AxialB, 0)
	src.Rho = p.float("Source.Rho", s.Rho, 0)
	src.Jz = p.float("Source.Jz", s.Jz, 0)
	src.Seed = uint64(p.int("Source.Seed", s.Seed, 0))
	src.MaxBoxSize = p.int("Source.MaxBoxSize", s.MaxBoxSize, cfg.MaxBoxSize)
	src.Ranks = cfg.Ranks

	names := make([]string, 0, len(args.Beam))
	for name := range args.Beam {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		b, key := args.Beam[name], "Beam."+name
		src.Beams = append(src.Beams, synth.Beam{
			Name:   name,
			N:      p.int(key+".N", b.N, 0),
			Center: p.vec(key+".Center", b.Center, [3]float64{}),
			Width:  p.vec(key+".Width", b.Width, [3]float64{}),
			U:      p.vec(key+".U", b.U, [3]float64{}),
			Weight: p.float(key+".Weight", b.Weight, 1),
		})
	}

	cfl := p.float("Source.CFL", s.CFL, 0.5)
	dx := math.Inf(1)
	for d := 0; d < 3; d++ {
		if cells[d] > 0 {
			dx = math.Min(dx, out.Geometry.CellSize(d))
		}
	}
	out.Dt = p.float("Source.Dt", s.Dt, cfl*dx/lorentz.C)

	if p.err != nil {
		return nil, p.err
	}
	return out, nil
}

func splitNames(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	names := strings.Split(s, ",")
	for i := range names {
		names[i] = strings.TrimSpace(names[i])
	}
	return names
}

// parser converts strings to typed values and remembers the first error, so
// Process can read every variable before checking.
type parser struct {
	err error
}

func (p *parser) fail(name, val, msg string) {
	if p.err == nil {
		p.err = fmt.Errorf("The config variable %s = '%s' %s.", name, val, msg)
	}
}

func (p *parser) float(name, val string, def float64) float64 {
	if val == "" {
		return def
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
	if err != nil {
		p.fail(name, val, "is not a number")
	}
	return x
}

func (p *parser) int(name, val string, def int) int {
	if val == "" {
		return def
	}
	x, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		p.fail(name, val, "is not an integer")
	}
	return x
}

func (p *parser) bool(name, val string, def bool) bool {
	if val == "" {
		return def
	}
	x, err := strconv.ParseBool(strings.TrimSpace(val))
	if err != nil {
		p.fail(name, val, "is not 'true' or 'false'")
	}
	return x
}

func (p *parser) axis(name, val string, def int) int {
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "":
		return def
	case "x", "0":
		return 0
	case "y", "1":
		return 1
	case "z", "2":
		return 2
	}
	p.fail(name, val, "must be x, y, or z")
	return def
}

func (p *parser) vec(name, val string, def [3]float64) [3]float64 {
	if val == "" {
		return def
	}
	tok := strings.Split(val, ",")
	if len(tok) != 3 {
		p.fail(name, val, "must be three comma-separated numbers")
		return def
	}
	out := [3]float64{}
	for i := range tok {
		out[i] = p.float(name, tok[i], 0)
	}
	return out
}

func (p *parser) intVec(name, val string) geom.IntVect {
	if val == "" {
		p.fail(name, val, "must be set")
		return geom.IntVect{}
	}
	tok := strings.Split(val, ",")
	if len(tok) != 3 {
		p.fail(name, val, "must be three comma-separated integers")
		return geom.IntVect{}
	}
	out := geom.IntVect{}
	for i := range tok {
		out[i] = p.int(name, tok[i], 0)
	}
	return out
}

func (p *parser) sequence(name, val string) []int {
	if val == "" {
		return nil
	}
	x, err := format.ExpandSequence(val)
	if err != nil {
		p.fail(name, val, "is not a valid sequence: "+err.Error())
	}
	return x
}
