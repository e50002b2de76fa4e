/*
Package rehearse runs branching conversational training scripts.

Trainers author a flow: a directed graph of scripted content, questions
and decisions. The validator checks a candidate graph's structure, the
lifecycle manager versions drafts and promotes exactly one published flow
per trainer, and the session runtime walks the graph live, one user
message per turn.

The Service type wires these pieces over pluggable stores; see the
subpackages for the individual components.
*/
package rehearse
