package connectivity

// Verify compares requirements against the copper graph.
//
// For each requirement with two or more ports the class of the first port is
// the expected class; every other port outside it is reported. If no other
// port shares the first port's class, the first port is reported too.
// Requirements with fewer than two ports are trivially satisfied.
func Verify(g *Graph, reqs []Requirement) []ConnectivityError {
	errs := []ConnectivityError{}

	for _, req := range reqs {
		if len(req.Ports) < 2 {
			continue
		}

		first := req.Ports[0]
		var errsForReq []ConnectivityError
		peers := 0
		for _, p := range req.Ports[1:] {
			if g.Connected(first.PortID, p.PortID) {
				peers++
				continue
			}
			errsForReq = append(errsForReq, notConnectedError(p, first, req))
		}

		if peers == 0 {
			errs = append(errs, notConnectedError(first, req.Ports[1], req))
		}
		errs = append(errs, errsForReq...)
	}

	return errs
}
