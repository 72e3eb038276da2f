// Package winrs implements the Windows Remote Shell resource on top of
// wsman: creating a shell, starting a command inside it, pumping its
// output until the command reports completion, and tearing the shell back
// down. It holds the stateful half of the protocol; wsman itself is
// stateless and builds one envelope per call.
package winrs
