package pkg

const tmplNode = `{{define "node" -}}
    {{printf "%s" .}}
{{- end}}`

const tmplEdge = `{{define "edge" -}}
    {{printf "%s" .}}
{{- end}}`

const tmplGraph = `digraph psdiff {
    label="{{.Title}}";
    labeljust="l";
    fontname="Arial";
    fontsize="14";
    rankdir="LR";
    bgcolor="lightgray";
    style="solid";
    penwidth="0.5";
    pad="0.0";
    node [shape="box" style="filled" fillcolor="honeydew" fontname="Verdana" penwidth="1.0" margin="0.05,0.0"];
    {{- range .Nodes}}
    {{template "node" .}}
    {{- end}}
    {{- range .Edges}}
    {{template "edge" .}}
    {{- end}}
}`
