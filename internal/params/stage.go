package params

// Stage identifies one precedence level of the resolution pipeline.
// Stages are ordered: for any key contributed by more than one stage,
// the value from the higher stage wins.
type Stage int

const (
	StageBase Stage = iota
	StageDiscovery
	StageGenerated
	StageCoreStack
	StageParentStack
	StageOverride
)

func (s Stage) String() string {
	switch s {
	case StageBase:
		return "base"
	case StageDiscovery:
		return "discovery"
	case StageGenerated:
		return "generated"
	case StageCoreStack:
		return "core-stack"
	case StageParentStack:
		return "parent-stack"
	case StageOverride:
		return "override"
	default:
		return "unknown"
	}
}
