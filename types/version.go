package types

// Version is the canonical project version.
// The CLI, the progress frame contract, and the stored object metadata all
// share this version per the lockstep versioning policy.
const Version = "0.4.0"
